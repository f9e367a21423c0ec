// Package docs registers the OpenAPI document served under /swagger/.
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
        "/login": {
            "post": {
                "description": "Starts a session for the named profile and sets the session cookie. An unused name is claimed with the given password.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "creds", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.profileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/cart": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get cart",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}}}
            },
            "delete": {
                "summary": "Clear cart",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/cart/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add cart item",
                "parameters": [
                    {"description": "Item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.addItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}}
                }
            }
        },
        "/cart/detail": {
            "post": {
                "consumes": ["text/html"],
                "produces": ["application/json"],
                "summary": "Add from detail page",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "string"}}
                }
            }
        },
        "/cart/items/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update quantity",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Quantity", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.quantityRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}}}
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Remove cart item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}}}
            }
        },
        "/favorites": {
            "get": {
                "produces": ["application/json"],
                "summary": "List favorites",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.favoritesResponse"}}}
            }
        },
        "/favorites/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Is favorited",
                "parameters": [
                    {"type": "string", "description": "Card ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.favoriteResponse"}}}
            }
        },
        "/favorites/{id}/toggle": {
            "post": {
                "produces": ["application/json"],
                "summary": "Toggle favorite",
                "parameters": [
                    {"type": "string", "description": "Card ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.favoriteResponse"}}}
            }
        },
        "/catalog": {
            "get": {
                "produces": ["application/json"],
                "summary": "Browse catalog",
                "parameters": [
                    {"type": "string", "description": "priceAsc, priceDesc, yearDesc or kmAsc", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/storefront.Listing"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}}
                }
            }
        },
        "/catalog/filters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Apply filters",
                "parameters": [
                    {"type": "string", "description": "Sort key", "name": "sort", "in": "query"},
                    {"description": "Criteria", "name": "criteria", "in": "body", "required": true, "schema": {"$ref": "#/definitions/catalog.Criteria"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/storefront.Listing"}}}
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Reset filters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/storefront.Listing"}}}
            }
        },
        "/catalog/{id}/cart": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add card to cart",
                "parameters": [
                    {"type": "string", "description": "Card ID", "name": "id", "in": "path", "required": true},
                    {"description": "Quantity", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/main.quantityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.cartResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        },
        "/catalog/{id}/quickview": {
            "get": {
                "produces": ["application/json"],
                "summary": "Quick view",
                "parameters": [
                    {"type": "string", "description": "Card ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/storefront.QuickView"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Checkout",
                "parameters": [
                    {"description": "Customer", "name": "customer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.Customer"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/checkout.Result"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "string"}}
                }
            }
        },
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "summary": "List orders",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}}}
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        },
        "/badges": {
            "get": {
                "produces": ["application/json"],
                "summary": "Badges",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.badgesResponse"}}}
            }
        },
        "/ws": {
            "get": {
                "description": "Upgrades to a WebSocket. The server sends {\"type\":\"badges\"} on every count change; clients send {\"type\":\"search\",\"value\":\"...\"} and receive {\"type\":\"results\"} once typing pauses.",
                "summary": "Live badges and search",
                "responses": {}
            }
        }
    },
    "definitions": {
        "badge.Counts": {
            "type": "object",
            "properties": {"cart": {"type": "integer"}, "favorites": {"type": "integer"}}
        },
        "badge.View": {
            "type": "object",
            "properties": {"text": {"type": "string"}, "visible": {"type": "boolean"}}
        },
        "cart.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "model": {"type": "string"},
                "priceCents": {"type": "integer"},
                "quantity": {"type": "integer"},
                "image": {"type": "string"},
                "dateAdded": {"type": "string"}
            }
        },
        "cart.Totals": {
            "type": "object",
            "properties": {
                "subtotal": {"type": "integer"},
                "tax": {"type": "integer"},
                "shipping": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "catalog.Card": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "brand": {"type": "string"},
                "priceCents": {"type": "integer"},
                "priceText": {"type": "string"},
                "year": {"type": "integer"},
                "km": {"type": "integer"},
                "transmission": {"type": "string"},
                "fuel": {"type": "string"},
                "image": {"type": "string"},
                "meta": {"type": "string"},
                "detailsUrl": {"type": "string"}
            }
        },
        "catalog.Criteria": {
            "type": "object",
            "properties": {
                "search": {"type": "string"},
                "brand": {"type": "string"},
                "maxPriceCents": {"type": "integer"},
                "minYear": {"type": "integer"},
                "transmission": {"type": "string"},
                "fuel": {"type": "string"}
            }
        },
        "checkout.Result": {
            "type": "object",
            "properties": {
                "order": {"$ref": "#/definitions/order.Order"},
                "redirectUrl": {"type": "string"},
                "redirectDelay": {"type": "integer"}
            }
        },
        "main.addItemRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "model": {"type": "string"},
                "priceCents": {"type": "integer"},
                "price": {"type": "string"},
                "image": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "main.badgesResponse": {
            "type": "object",
            "properties": {
                "counts": {"$ref": "#/definitions/badge.Counts"},
                "badges": {"type": "object", "additionalProperties": {"$ref": "#/definitions/badge.View"}}
            }
        },
        "main.cartResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.Item"}},
                "count": {"type": "integer"},
                "totals": {"$ref": "#/definitions/cart.Totals"}
            }
        },
        "main.favoriteResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "favorited": {"type": "boolean"}}
        },
        "main.favoritesResponse": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}},
                "cards": {"type": "array", "items": {"$ref": "#/definitions/catalog.Card"}}
            }
        },
        "main.loginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "main.profileResponse": {
            "type": "object",
            "properties": {"profile": {"type": "string"}}
        },
        "main.quantityRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer"}}
        },
        "order.Customer": {
            "type": "object",
            "properties": {
                "fullname": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "payment": {"type": "string"}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "createdAt": {"type": "string"},
                "customer": {"$ref": "#/definitions/order.Customer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.Item"}},
                "totals": {"$ref": "#/definitions/cart.Totals"}
            }
        },
        "storefront.Listing": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/catalog.Card"}},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "totalCount": {"type": "integer"},
                "hasPrev": {"type": "boolean"},
                "hasNext": {"type": "boolean"},
                "criteria": {"$ref": "#/definitions/catalog.Criteria"},
                "sort": {"type": "string"}
            }
        },
        "storefront.QuickView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "meta": {"type": "string"},
                "price": {"type": "string"},
                "image": {"type": "string"},
                "detailsUrl": {"type": "string"},
                "favorited": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8443",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "AutoBesa Storefront API",
	Description:      "Cart, favorites, catalog and checkout for the AutoBesa car catalog",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
