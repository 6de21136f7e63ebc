package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"createRule": null,
			"deleteRule": null,
			"fields": [
				{
					"autogeneratePattern": "[a-z0-9]{15}",
					"hidden": false,
					"id": "text3208210256",
					"max": 15,
					"min": 15,
					"name": "id",
					"pattern": "^[a-z0-9]+$",
					"presentable": false,
					"primaryKey": true,
					"required": true,
					"system": true,
					"type": "text"
				},
				{
					"cascadeDelete": true,
					"collectionId": "pbc_rf0001",
					"hidden": false,
					"id": "relation2165331101",
					"maxSelect": 1,
					"minSelect": 0,
					"name": "game",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "relation"
				},
				{
					"hidden": false,
					"id": "date2165331102",
					"max": "",
					"min": "",
					"name": "timestamp",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "number2165331103",
					"max": null,
					"min": null,
					"name": "round_number",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "autodate2990389176",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				},
				{
					"hidden": false,
					"id": "autodate3332085495",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_rf0002",
			"indexes": [
				"CREATE INDEX ` + "`" + `idx_round_starts_game` + "`" + ` ON ` + "`" + `round_starts` + "`" + ` (` + "`" + `game` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_round_starts_game_round_number` + "`" + ` ON ` + "`" + `round_starts` + "`" + ` (\n  ` + "`" + `game` + "`" + `,\n  ` + "`" + `round_number` + "`" + `\n)"
			],
			"listRule": "",
			"name": "round_starts",
			"system": false,
			"type": "base",
			"updateRule": null,
			"viewRule": ""
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_rf0002")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
