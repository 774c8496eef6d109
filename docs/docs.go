// Package docs holds the OpenAPI document served under /swagger. Regenerate
// with `swag init` after changing handler annotations.
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
        "/itineraries/request": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Selects approved publications for the destination, asks the language model for a day-by-day plan and validates it. Empty pools and model failures return 200 with status=failed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "Generate an itinerary",
                "parameters": [
                    {"description": "Trip request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ItineraryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Itinerary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/types.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/itineraries/my-itineraries": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the authenticated user's itineraries, newest first, with hydrated publications.",
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "List my itineraries",
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PaginatedItineraries"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/itineraries/by-user/{userID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Same as my-itineraries for any user id. Allowed for the user themself or an admin.",
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "List a user's itineraries",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PaginatedItineraries"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/itineraries/validate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validates either an AI-usage summary or a custom plan without storing it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "Validate a plan",
                "parameters": [
                    {"description": "Plan to validate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ValidatePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ValidationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/itineraries/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "Get an itinerary",
                "parameters": [
                    {"type": "integer", "description": "Itinerary ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Itinerary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Itineraries"],
                "summary": "Delete an itinerary",
                "parameters": [
                    {"type": "integer", "description": "Itinerary ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/itineraries/{id}/plan": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces the custom plan of an owned itinerary and returns its validation.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Itineraries"],
                "summary": "Store a custom plan",
                "parameters": [
                    {"type": "integer", "description": "Itinerary ID", "name": "id", "in": "path", "required": true},
                    {"description": "Custom plan", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.UpdatePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ValidationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        }
    },
    "definitions": {
        "types.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"type": "string", "example": "Itinerario no encontrado"},
                "request_id": {"type": "string"}
            }
        },
        "types.ItineraryRequest": {
            "type": "object",
            "required": ["destination", "start_date", "end_date", "cant_persons", "trip_type"],
            "properties": {
                "destination": {"type": "string", "maxLength": 200, "example": "Buenos Aires"},
                "start_date": {"type": "string", "example": "2025-03-10"},
                "end_date": {"type": "string", "example": "2025-03-12"},
                "budget": {"type": "integer", "minimum": 0, "example": 500},
                "cant_persons": {"type": "integer", "minimum": 1, "maximum": 50, "example": 2},
                "trip_type": {"type": "string", "enum": ["aventura", "relax", "cultural", "gastronomico", "familiar", "romantico", "negocios"], "example": "cultural"},
                "arrival_time": {"type": "string", "example": "10:30"},
                "departure_time": {"type": "string", "example": "18:00"},
                "comments": {"type": "string", "maxLength": 1000}
            }
        },
        "types.PublicationCard": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "place_name": {"type": "string"},
                "country": {"type": "string"},
                "province": {"type": "string"},
                "city": {"type": "string"},
                "address": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "activities": {"type": "array", "items": {"type": "string"}},
                "cost_per_day": {"type": "number"},
                "duration_min": {"type": "integer"},
                "available_days": {"type": "array", "items": {"type": "string"}},
                "available_hours": {"type": "array", "items": {"type": "string"}},
                "rating_avg": {"type": "number"},
                "rating_count": {"type": "integer"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "categories": {"type": "array", "items": {"type": "string"}},
                "is_favorite": {"type": "boolean"}
            }
        },
        "types.Itinerary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "destination": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "budget": {"type": "integer"},
                "cant_persons": {"type": "integer"},
                "trip_type": {"type": "string"},
                "arrival_time": {"type": "string"},
                "departure_time": {"type": "string"},
                "comments": {"type": "string"},
                "generated_itinerary": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "completed", "failed"]},
                "failure_kind": {"type": "string", "enum": ["no_publications", "llm_not_configured", "llm_error", "llm_timeout", "empty_response", "abandoned"]},
                "publication_ids": {"type": "array", "items": {"type": "integer"}},
                "custom_plan": {"type": "object"},
                "validation": {"$ref": "#/definitions/types.ValidationResult"},
                "publications": {"type": "array", "items": {"$ref": "#/definitions/types.PublicationCard"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "types.PaginatedItineraries": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/types.Itinerary"}},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "types.PublicationUsage": {
            "type": "object",
            "properties": {
                "publication_id": {"type": "integer"},
                "times_used": {"type": "integer"},
                "days_used": {"type": "array", "items": {"type": "string"}},
                "hours_used": {"type": "array", "items": {"type": "string"}},
                "ai_estimated_cost": {"type": "number"}
            }
        },
        "types.UpdatePlanRequest": {
            "type": "object",
            "required": ["plan"],
            "properties": {
                "plan": {"type": "object", "description": "day_N -> morning|afternoon|evening -> HH:MM-HH:MM -> activity"}
            }
        },
        "types.ValidatePlanRequest": {
            "type": "object",
            "required": ["cant_persons", "start_date", "end_date"],
            "properties": {
                "budget": {"type": "number"},
                "cant_persons": {"type": "integer"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "usage": {"type": "array", "items": {"$ref": "#/definitions/types.PublicationUsage"}},
                "custom_plan": {"type": "object"}
            }
        },
        "types.ValidationIssue": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "publication_id": {"type": "integer"},
                "day": {"type": "string"},
                "hour": {"type": "string"}
            }
        },
        "types.PublicationReport": {
            "type": "object",
            "properties": {
                "publication_id": {"type": "integer"},
                "name": {"type": "string"},
                "times_used": {"type": "integer"},
                "days_used": {"type": "array", "items": {"type": "string"}},
                "hours_used": {"type": "array", "items": {"type": "string"}},
                "ai_estimated_cost": {"type": "number"},
                "real_cost": {"type": "number"},
                "availability_valid": {"type": "boolean"}
            }
        },
        "types.ValidationResult": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/types.ValidationIssue"}},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/types.ValidationIssue"}},
                "real_total_cost": {"type": "number"},
                "budget": {"type": "number"},
                "utilization_percent": {"type": "number"},
                "publications": {"type": "array", "items": {"$ref": "#/definitions/types.PublicationReport"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "WanderPlan Itinerary API",
	Description:      "Generates travel itineraries from approved local publications and validates them against availability and budget.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
