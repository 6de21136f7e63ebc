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
					"id": "relation2165331201",
					"maxSelect": 1,
					"minSelect": 0,
					"name": "game",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "relation"
				},
				{
					"cascadeDelete": false,
					"collectionId": "pbc_rf0002",
					"hidden": false,
					"id": "relation2165331202",
					"maxSelect": 1,
					"minSelect": 0,
					"name": "round_start",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "relation"
				},
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text2165331203",
					"max": 0,
					"min": 0,
					"name": "type",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "date2165331204",
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
					"id": "json2165331205",
					"maxSize": 0,
					"name": "data",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "json"
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
			"id": "pbc_rf0003",
			"indexes": [
				"CREATE INDEX ` + "`" + `idx_game_events_type` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `type` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_game_events_game` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `game` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_game_events_round_start` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `round_start` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_game_events_type_timestamp` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (\n  ` + "`" + `type` + "`" + `,\n  ` + "`" + `timestamp` + "`" + `\n)"
			],
			"listRule": "",
			"name": "game_events",
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
		collection, err := app.FindCollectionByNameOrId("pbc_rf0003")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
