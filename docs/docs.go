// Package docs holds the Swagger spec served at /docs. Regenerate with
// `swag init -g cmd/server/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/axiumai/chat-widget"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/widget/conversations": {
            "post": {
                "description": "Opens a conversation, initiates a chat session and returns the conversation token",
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Create conversation",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CreateConversationResponse"}},
                    "502": {"description": "Session initiation failed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "503": {"description": "Conversation limit reached", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/widget/conversations/{conversationId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the conversation state with rendered messages",
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Get conversation",
                "parameters": [{"type": "string", "description": "Conversation ID", "name": "conversationId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ConversationResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Conversations"],
                "summary": "Delete conversation",
                "parameters": [{"type": "string", "description": "Conversation ID", "name": "conversationId", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/widget/conversations/{conversationId}/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Sends user text, reconnecting or recovering the session when needed",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Send message",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationId", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SendMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ConversationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conversation reset while sending", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Delivery and recovery failed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/widget/conversations/{conversationId}/reset": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Closes the session and clears the message log; the next message starts a new session",
                "tags": ["Conversations"],
                "summary": "Reset conversation",
                "parameters": [{"type": "string", "description": "Conversation ID", "name": "conversationId", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/widget/conversations/{conversationId}/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-Sent Events: a snapshot event first, then one event per conversation change (message, state, typing, session, reset, error)",
                "produces": ["text/event-stream"],
                "tags": ["Conversations"],
                "summary": "Stream conversation events",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationId", "in": "path", "required": true},
                    {"type": "string", "description": "Conversation token, for clients that cannot set headers", "name": "token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/widget/health": {
            "get": {
                "description": "Returns the overall health status and component statuses",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service healthy", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                    "503": {"description": "Service unhealthy", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/api/v1/widget/ready": {
            "get": {
                "description": "Returns 200 if the service is ready to accept traffic",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Service ready", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service not ready", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/widget/live": {
            "get": {
                "description": "Returns 200 if the service is alive",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "Service alive", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.CreateConversationResponse": {
            "type": "object",
            "properties": {
                "conversationId": {"type": "string"},
                "token": {"type": "string"},
                "sessionId": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "connecting", "connected", "error", "closed"]}
            }
        },
        "dto.ConversationResponse": {
            "type": "object",
            "properties": {
                "conversationId": {"type": "string"},
                "sessionId": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "connecting", "connected", "error", "closed"]},
                "typing": {"type": "boolean"},
                "canSend": {"type": "boolean"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/models.RenderedMessage"}},
                "lastError": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "dto.SendMessageRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string", "maxLength": 4000, "minLength": 1}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "components": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "models.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "assistant", "system"]},
                "text": {"type": "string"},
                "createdAt": {"type": "integer"},
                "rawData": {"type": "object"}
            }
        },
        "models.RenderedMessage": {
            "type": "object",
            "properties": {
                "message": {"$ref": "#/definitions/models.Message"},
                "displayText": {"type": "string"},
                "marketTemplates": {"type": "array", "items": {"type": "object"}},
                "fixtures": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Conversation token returned by the create endpoint",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Axium Chat Widget Bridge API",
	Description:      "Backend-for-frontend that owns chat sessions for embedded widget visitors",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
