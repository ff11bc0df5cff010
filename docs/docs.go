// Package docs registers the OpenAPI description of the control API with swag
// so gin-swagger can serve it under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api": {
            "get": {
                "description": "Relays, running flag, local time and the weekly schedule. Time fields read --:--:-- until the clock is synced.",
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Device status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Status"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/setSchedule": {
            "post": {
                "description": "Sparse update. Fields are d{i}hon, d{i}mon, d{i}hof, d{i}mof, d{i}rl, d{i}act with i=0 (Monday) .. 6 (Sunday). Malformed or out-of-range fields are ignored.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Update schedule",
                "parameters": [
                    {"type": "integer", "description": "Monday hour on (0-23)", "name": "d0hon", "in": "formData"},
                    {"type": "string", "description": "Monday active (1 or 0)", "name": "d0act", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "status, changed, state", "schema": {"type": "object"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/setRunning": {
            "post": {
                "description": "running=0 switches both relays off immediately.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Enable or disable the scheduler",
                "parameters": [
                    {"type": "string", "description": "1 or 0", "name": "running", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/reset": {
            "post": {
                "description": "Switches both relays off, erases the stored record and restarts into setup mode.",
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Factory reset",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/connect": {
            "post": {
                "description": "Only available in setup mode. Saves the credentials and restarts into the join path.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "tags": ["setup"],
                "summary": "Provision network credentials",
                "parameters": [
                    {"type": "string", "description": "Network name (max 64 bytes)", "name": "ssid", "in": "formData", "required": true},
                    {"type": "string", "description": "Network password (max 64 bytes)", "name": "pass", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Relay switches, schedule edits, running toggles, mode changes, provisioning and resets, newest first. Dates accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' is inclusive of that day.",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List device events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range; date-only means end of that day", "name": "to", "in": "query"},
                    {"type": "string", "example": "24h", "description": "Only events newer than this duration; overrides from", "name": "last", "in": "query"},
                    {"enum": ["RELAY", "RUNNING", "SCHEDULE", "PROVISION", "RESET", "MODE"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LogsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket upgrade. Sends {\"type\":\"status\",\"data\":Status} immediately and then every interval (?interval=2s or ?interval_ms=2000, max 10s). Closed with 1001 when the device restarts.",
                "tags": ["control"],
                "summary": "Status stream",
                "responses": {}
            }
        }
    },
    "definitions": {
        "DeviceEvent": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "occurred_at": {"type": "string", "format": "date-time"},
                "type": {"type": "string", "enum": ["RELAY", "RUNNING", "SCHEDULE", "PROVISION", "RESET", "MODE"]},
                "description": {"type": "string"},
                "metadata": {"type": "object"}
            }
        },
        "LogsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/DeviceEvent"}}
            }
        },
        "Error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "ScheduleDay": {
            "type": "object",
            "properties": {
                "hourOn": {"type": "integer"},
                "minuteOn": {"type": "integer"},
                "hourOff": {"type": "integer"},
                "minuteOff": {"type": "integer"},
                "relay": {"type": "integer", "enum": [1, 2, 3]},
                "active": {"type": "boolean"}
            }
        },
        "Status": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean"},
                "relay1": {"type": "boolean"},
                "relay2": {"type": "boolean"},
                "time": {"type": "string", "example": "14:05:09"},
                "date": {"type": "string", "example": "02.06.2025"},
                "dayIndex": {"type": "integer", "example": 0},
                "mode": {"type": "string", "example": "provisioned"},
                "ip": {"type": "string"},
                "mdns": {"type": "string", "example": "harm.local"},
                "schedule": {"type": "array", "items": {"$ref": "#/definitions/ScheduleDay"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Schedule controller API",
	Description:      "Weekly relay schedule controller: status, schedule, running flag, factory reset and provisioning.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
