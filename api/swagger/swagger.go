package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vyom Poster API",
        "description": "Marksheet poster service: template catalog, poster drafts and gallery exports",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "Schools, marksheet templates and subject mappings"},
        {"name": "Browse", "description": "Stateful catalog browse sessions"},
        {"name": "Drafts", "description": "Poster draft composition"},
        {"name": "Exports", "description": "Poster export jobs and gallery downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/schools": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List schools",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create school",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSchoolRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schools/{id}/marks-options": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List distinct max-marks options",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schools/{id}/subjects": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List subjects for a standard",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "standard", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/templates": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List templates",
                "parameters": [
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "maxMarks", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Publish template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/templates/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Catalog"],
                "summary": "Update template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/subjects": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Map subject to a standard range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectMappingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/browse": {
            "post": {
                "tags": ["Browse"],
                "summary": "Open browse session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBrowseSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/browse/{id}": {
            "get": {
                "tags": ["Browse"],
                "summary": "Get browse session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Browse"],
                "summary": "Close browse session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/browse/{id}/filters": {
            "put": {
                "tags": ["Browse"],
                "summary": "Change browse filters",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBrowseFiltersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/browse/{id}/next": {
            "post": {
                "tags": ["Browse"],
                "summary": "Load next page",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts": {
            "post": {
                "tags": ["Drafts"],
                "summary": "Open poster draft",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDraftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}": {
            "get": {
                "tags": ["Drafts"],
                "summary": "Get draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Draft expired"}
                }
            },
            "delete": {
                "tags": ["Drafts"],
                "summary": "Destroy draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Export in progress"}
                }
            }
        },
        "/api/v1/drafts/{id}/fields": {
            "put": {
                "tags": ["Drafts"],
                "summary": "Apply text prompt result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyPromptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/marks": {
            "put": {
                "tags": ["Drafts"],
                "summary": "Set a subject mark",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetMarkPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/photo": {
            "post": {
                "tags": ["Drafts"],
                "summary": "Attach student photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/photo/transform": {
            "put": {
                "tags": ["Drafts"],
                "summary": "Apply pinch or drag step",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransformPhotoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/photo/delete": {
            "post": {
                "tags": ["Drafts"],
                "summary": "Drive the photo delete confirmation flow",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PhotoDeletePayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/overlay": {
            "put": {
                "tags": ["Drafts"],
                "summary": "Toggle delete-control overlay",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetOverlayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/drafts/{id}/preview": {
            "get": {
                "tags": ["Drafts"],
                "summary": "Render draft preview",
                "produces": ["image/png"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PNG image"}
                }
            }
        },
        "/api/v1/drafts/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Enqueue poster export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/gallery/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download exported poster",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "School": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Template": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "school_id": {"type": "string"},
                "name": {"type": "string"},
                "standard": {"type": "integer"},
                "max_marks": {"type": "integer"},
                "image_url": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateSchoolRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "name": {"type": "string"},
                "standard": {"type": "integer"},
                "max_marks": {"type": "integer"},
                "image_url": {"type": "string"}
            },
            "required": ["school_id", "name", "standard", "max_marks"]
        },
        "UpdateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "standard": {"type": "integer"},
                "max_marks": {"type": "integer"},
                "image_url": {"type": "string"}
            },
            "required": ["name", "standard", "max_marks"]
        },
        "CreateSubjectMappingRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "subject": {"type": "string"},
                "standard_range": {"type": "string"}
            },
            "required": ["school_id", "subject", "standard_range"]
        },
        "CreateBrowseSessionRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["filtered", "paginated"]},
                "school_id": {"type": "string"},
                "max_marks": {"type": "integer"}
            },
            "required": ["mode"]
        },
        "UpdateBrowseFiltersRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "max_marks": {"type": "integer"}
            }
        },
        "BrowseSessionResponse": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "mode": {"type": "string"},
                "schoolId": {"type": "string"},
                "marks": {"type": "integer"},
                "options": {"type": "array", "items": {"type": "integer"}},
                "templates": {"type": "array", "items": {"$ref": "#/definitions/Template"}},
                "page": {"type": "integer"},
                "exhausted": {"type": "boolean"},
                "inFlight": {"type": "boolean"},
                "lastError": {"type": "string"}
            }
        },
        "CreateDraftRequest": {
            "type": "object",
            "properties": {
                "template_id": {"type": "string"}
            },
            "required": ["template_id"]
        },
        "DraftResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "template": {"$ref": "#/definitions/Template"},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "marks": {"type": "object"},
                "studentName": {"type": "string"},
                "unitLabel": {"type": "string"},
                "percentage": {"type": "string"},
                "photoState": {"type": "string"},
                "photoAttached": {"type": "boolean"},
                "scale": {"type": "number"},
                "offsetX": {"type": "number"},
                "offsetY": {"type": "number"},
                "overlayVisible": {"type": "boolean"}
            }
        },
        "ApplyPromptRequest": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "enum": ["student_name", "unit_label"]},
                "value": {"type": "string"}
            },
            "required": ["field"]
        },
        "SetMarkPayload": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "value": {"type": "string"}
            },
            "required": ["subject"]
        },
        "MarkResultResponse": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "stored": {"type": "string"},
                "percentage": {"type": "string"},
                "focus": {"type": "string"},
                "nextSubject": {"type": "string"}
            }
        },
        "TransformPhotoRequest": {
            "type": "object",
            "properties": {
                "scale_factor": {"type": "number"},
                "dx": {"type": "number"},
                "dy": {"type": "number"}
            },
            "required": ["scale_factor"]
        },
        "PhotoDeletePayload": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["request", "cancel", "confirm"]}
            },
            "required": ["action"]
        },
        "SetOverlayRequest": {
            "type": "object",
            "properties": {
                "visible": {"type": "boolean"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["png", "pdf", "csv"]},
                "embedQr": {"type": "boolean"},
                "scale": {"type": "number"},
                "album": {"type": "string"}
            },
            "required": ["format"]
        },
        "ExportJobResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"}
            }
        },
        "ExportStatusResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"},
                "resultUrl": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
