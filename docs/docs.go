// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/config/stripe": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Config"],
                "summary": "Stripe client configuration",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StripeConfigResponse"}}}
            }
        },
        "/api/config/coinbase": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Config"],
                "summary": "Coinbase Commerce configuration",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CoinbaseConfigResponse"}}}
            }
        },
        "/api/payments/create-subscription-checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Create subscription checkout",
                "parameters": [{"description": "Subscription checkout", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkout.SubscriptionCheckoutRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        },
        "/api/payments/create-order-checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Create order checkout",
                "parameters": [{"description": "Order checkout", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkout.OrderCheckoutRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        },
        "/api/payments/create-coinbase-checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Create Coinbase Commerce checkout",
                "parameters": [{"description": "Crypto checkout", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkout.OrderCheckoutRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.ChargeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        },
        "/api/payments/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "List payments",
                "parameters": [{"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Payment"}}}}
            }
        },
        "/api/subscriptions/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Get subscription",
                "parameters": [{"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Subscription"}}}
            }
        },
        "/api/subscriptions/{userId}/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Cancel subscription",
                "parameters": [{"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        },
        "/api/webhooks/stripe": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Stripe webhook",
                "parameters": [
                    {"type": "string", "description": "Stripe signature header", "name": "Stripe-Signature", "in": "header", "required": true},
                    {"description": "Stripe event", "name": "payload", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookAck"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        },
        "/api/webhooks/coinbase": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Coinbase Commerce webhook",
                "parameters": [
                    {"type": "string", "description": "HMAC-SHA256 of the raw body", "name": "X-CC-Webhook-Signature", "in": "header", "required": true},
                    {"description": "Coinbase Commerce event", "name": "payload", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookAck"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.RespError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespError"}}
                }
            }
        }
    },
    "definitions": {
        "checkout.SubscriptionCheckoutRequest": {
            "type": "object",
            "required": ["tier", "userId"],
            "properties": {
                "userId": {"type": "string"},
                "tier": {"type": "string", "enum": ["starter", "professional", "enterprise"]},
                "successUrl": {"type": "string"},
                "cancelUrl": {"type": "string"}
            }
        },
        "checkout.OrderCheckoutRequest": {
            "type": "object",
            "required": ["amount", "userId"],
            "properties": {
                "userId": {"type": "string"},
                "orderId": {"type": "string"},
                "amount": {"type": "string", "example": "12.50"},
                "description": {"type": "string"},
                "successUrl": {"type": "string"},
                "cancelUrl": {"type": "string"}
            }
        },
        "checkout.SessionResponse": {
            "type": "object",
            "properties": {"sessionId": {"type": "string"}, "url": {"type": "string"}}
        },
        "checkout.ChargeResponse": {
            "type": "object",
            "properties": {"chargeId": {"type": "string"}, "url": {"type": "string"}}
        },
        "handlers.StripeConfigResponse": {
            "type": "object",
            "properties": {"publishableKey": {"type": "string"}, "isConfigured": {"type": "boolean"}}
        },
        "handlers.CoinbaseConfigResponse": {
            "type": "object",
            "properties": {"isConfigured": {"type": "boolean"}}
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "handlers.WebhookAck": {
            "type": "object",
            "properties": {"received": {"type": "boolean"}}
        },
        "handlers.RespError": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {"type": "string"}}
        },
        "models.Payment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "orderId": {"type": "string"},
                "provider": {"type": "string", "enum": ["stripe", "coinbase"]},
                "providerSessionId": {"type": "string"},
                "providerPaymentId": {"type": "string"},
                "amount": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "completed", "failed"]},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.Subscription": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "stripeCustomerId": {"type": "string"},
                "stripeSubscriptionId": {"type": "string"},
                "tier": {"type": "string"},
                "status": {"type": "string"},
                "currentPeriodStart": {"type": "string"},
                "currentPeriodEnd": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Caterpay Billing API",
	Description:      "Stripe and Coinbase Commerce checkout, webhook reconciliation and subscription state.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
