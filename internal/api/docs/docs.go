// Package docs registers the OpenAPI description served under /swagger.
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
                "produces": ["text/plain"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/health.Health"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/health.Health"}}
                }
            }
        },
        "/meta": {
            "get": {
                "description": "Loads priorities and category options on first call and returns the cached values.",
                "produces": ["application/json"],
                "summary": "Tracker metadata",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metadata.Snapshot"}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/debug/last": {
            "get": {
                "produces": ["application/json"],
                "summary": "Last observed channel message",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "health.CheckResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "health.Health": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"$ref": "#/definitions/health.CheckResult"}},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "metadata.CategoryOption": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "value": {"type": "string"}}
        },
        "metadata.Priority": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}}
        },
        "metadata.Snapshot": {
            "type": "object",
            "properties": {
                "assuntoOptions": {"type": "array", "items": {"$ref": "#/definitions/metadata.CategoryOption"}},
                "priorities": {"type": "array", "items": {"$ref": "#/definitions/metadata.Priority"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "alertbridge API",
	Description:      "Status, tracker metadata and debug endpoints of the alert to ticket bridge.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
