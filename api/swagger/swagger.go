package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Academic API",
        "description": "Prerequisite checks, enrollment, final exam registration, weekly schedules and personal agendas.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Prerequisites", "description": "Coursework and final exam prerequisites"},
        {"name": "Enrollments", "description": "Subject enrollment"},
        {"name": "Final Exams", "description": "Final exam registration"},
        {"name": "Time Blocks", "description": "Weekly schedule blocks"},
        {"name": "Agenda", "description": "Personal day-by-day agenda"},
        {"name": "Ops", "description": "Engine metrics"}
    ],
    "paths": {
        "/prerequisites/check": {
            "get": {
                "tags": ["Prerequisites"],
                "summary": "Check coursework and final prerequisites",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "studentId", "in": "query", "type": "string", "description": "Staff only"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PrerequisiteReportEnvelope"}},
                    "404": {"description": "Unknown student or subject", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prerequisites/check/cursada": {
            "get": {
                "tags": ["Prerequisites"],
                "summary": "Check coursework prerequisites",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prerequisites/check/final": {
            "get": {
                "tags": ["Prerequisites"],
                "summary": "Check final exam prerequisites",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prerequisites/{edgeId}": {
            "delete": {
                "tags": ["Prerequisites"],
                "summary": "Remove a prerequisite",
                "parameters": [
                    {"name": "edgeId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}/prerequisites": {
            "get": {
                "tags": ["Prerequisites"],
                "summary": "List prerequisites of a subject",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Prerequisites"],
                "summary": "Add a prerequisite to a subject",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePrerequisiteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure or PREREQUISITE_CYCLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student in a subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "OUT_OF_SCOPE, PREREQUISITES_UNMET, ALREADY_ENROLLED, SUBJECT_MISMATCH or COMMISSION_FULL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student, subject or commission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/mine": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List own enrollments",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-exams/registrations": {
            "post": {
                "tags": ["Final Exams"],
                "summary": "Register an enrollment for a final exam",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterFinalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "SUBJECT_MISMATCH, INVALID_STANDING, PREREQUISITES_UNMET, ALREADY_REGISTERED or NO_SEATS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Enrollment belongs to another student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-exams/registrations/mine": {
            "get": {
                "tags": ["Final Exams"],
                "summary": "List own final exam registrations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-exams/registrations/mine/{id}": {
            "delete": {
                "tags": ["Final Exams"],
                "summary": "Cancel own registration",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "403": {"description": "Registration belongs to another student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-exams/registrations/{id}": {
            "delete": {
                "tags": ["Final Exams"],
                "summary": "Remove a registration",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/time-blocks": {
            "get": {
                "tags": ["Time Blocks"],
                "summary": "List time blocks",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "commissionId", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Time Blocks"],
                "summary": "Create a time block",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimeBlockRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "SCHEDULE_OVERLAP carries the conflicting block in error.details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-blocks/{id}": {
            "put": {
                "tags": ["Time Blocks"],
                "summary": "Replace a time block",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimeBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Time Blocks"],
                "summary": "Delete a time block",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/agenda": {
            "get": {
                "tags": ["Agenda"],
                "summary": "Personal agenda",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "userId", "in": "query", "type": "string", "description": "Staff only"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_AGENDA_RANGE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/agenda/export": {
            "get": {
                "tags": ["Agenda"],
                "summary": "Download personal agenda",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "userId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Engine metrics summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubjectRef": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "nombre": {"type": "string"},
                "unknown": {"type": "boolean"}
            }
        },
        "PrerequisiteResult": {
            "type": "object",
            "properties": {
                "cumple": {"type": "boolean"},
                "faltantes": {"type": "array", "items": {"$ref": "#/definitions/SubjectRef"}}
            }
        },
        "PrerequisiteReport": {
            "type": "object",
            "properties": {
                "cursada": {"$ref": "#/definitions/PrerequisiteResult"},
                "final": {"$ref": "#/definitions/PrerequisiteResult"},
                "aprobado": {"type": "boolean"}
            }
        },
        "PrerequisiteReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/PrerequisiteReport"}
            }
        },
        "CreatePrerequisiteRequest": {
            "type": "object",
            "properties": {
                "required_subject_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["ENROLL", "FINAL"]},
                "study_plan_id": {"type": "string"},
                "required_level": {"type": "integer"}
            },
            "required": ["required_subject_id", "kind"]
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "commission_id": {"type": "string"}
            },
            "required": ["subject_id"]
        },
        "RegisterFinalRequest": {
            "type": "object",
            "properties": {
                "enrollment_id": {"type": "string"},
                "final_exam_id": {"type": "string"}
            },
            "required": ["enrollment_id", "final_exam_id"]
        },
        "TimeBlockRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "commission_id": {"type": "string"},
                "instructor_id": {"type": "string"},
                "day": {"type": "string"},
                "start": {"type": "string", "example": "08:00"},
                "end": {"type": "string", "example": "10:00"},
                "room": {"type": "string"}
            },
            "required": ["subject_id", "day", "start", "end"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
