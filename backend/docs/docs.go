// Package docs holds the OpenAPI description served under /swagger.
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/services.UserInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/courses/{id}/register": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["progress"],
                "summary": "Register for a course",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/my-courses": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["progress"],
                "summary": "Courses the signed-in user registered for",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/admin/courses": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Create a course",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "string", "name": "code", "in": "formData", "required": true},
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "file", "name": "cover_image", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/admin/courses/{id}": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Edit a course",
                "consumes": ["multipart/form-data"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a course with its lessons, enrollments, progress and attendance",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/admin/users/{id}": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Edit a user",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "services.UserInput": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "details": {},
                "input": {}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "LearnHub API",
	Description:      "Course management backend: catalog, registrations and administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
