// Package docs registers the OpenAPI document served by Swagger UI.
//
// Regenerate with: swag init -g cmd/notifier/main.go -o docs
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
        "/orders/{id}/notify": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Send the new-order notification",
                "operationId": "notifyOrder",
                "parameters": [
                    {"type": "string", "description": "Admin identity", "name": "X-Actor-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.DeliveryResult"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/channels/{id}/test": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Send a test message to a channel",
                "operationId": "testChannel",
                "parameters": [
                    {"type": "string", "description": "Admin identity", "name": "X-Actor-ID", "in": "header"},
                    {"type": "string", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"description": "Custom text", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.TestChannelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.DeliveryResult"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Channel misconfigured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Delivery failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/channels/{id}/summary": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Send an order summary to a channel",
                "operationId": "sendSummary",
                "parameters": [
                    {"type": "string", "description": "Admin identity", "name": "X-Actor-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"description": "Window (RFC 3339)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SummaryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.DeliveryResult"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Inactive, misconfigured, invalid window or no sources", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Delivery failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/notification-logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "List delivery audit entries (paginated)",
                "operationId": "listNotificationLogs",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"type": "string", "description": "Filter by channel", "name": "channel_id", "in": "query"},
                    {"type": "string", "description": "Filter by order", "name": "order_id", "in": "query"},
                    {"type": "string", "description": "new_order | order_summary | test", "name": "event_type", "in": "query"},
                    {"type": "string", "description": "success | failed", "name": "status", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListLogsResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.TestChannelRequest": {
            "type": "object",
            "properties": {"text": {"type": "string", "maxLength": 3900}}
        },
        "handlers.SummaryRequest": {
            "type": "object",
            "required": ["windowStart", "windowEnd"],
            "properties": {
                "windowStart": {"type": "string", "example": "2025-05-01T00:00:00+07:00"},
                "windowEnd": {"type": "string", "example": "2025-05-01T12:00:00+07:00"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListLogsResponse": {
            "type": "object",
            "properties": {
                "logs": {"type": "array", "items": {"$ref": "#/definitions/domain.NotificationLog"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "domain.NotificationLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "channel_id": {"type": "string"},
                "order_id": {"type": "string"},
                "event_type": {"type": "string"},
                "status": {"type": "string"},
                "error_message": {"type": "string"},
                "response": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "services.DeliveryResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "sentCount": {"type": "integer"},
                "orderCount": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Order Notifier API",
	Description:      "Order notifications to LINE and Telegram groups: new-order pushes, windowed summaries, test sends and the delivery audit log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
