package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "After-school Program API",
        "description": "Course registration, enrollment and attendance for the after-school program",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Verification, signup and sessions"},
        {"name": "Student", "description": "Catalog, enrollment and attendance history"},
        {"name": "Teacher", "description": "Course authoring and attendance sheets"},
        {"name": "Admin", "description": "Approval, bulk lifecycle actions and user management"},
        {"name": "Boards", "description": "Notices and surveys"}
    ],
    "paths": {
        "/auth/send-verification": {
            "post": {
                "tags": ["Auth"],
                "summary": "Send a seven character verification code",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendVerificationRequest"}}],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/auth/verify": {
            "post": {
                "tags": ["Auth"],
                "summary": "Check a verification code without consuming it",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyCodeRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account with a verified email",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for tokens",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "Revoke the current session", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/auth/me": {
            "get": {"tags": ["Auth"], "summary": "Current user profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/student/courses": {
            "get": {
                "tags": ["Student"],
                "summary": "Browse open courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "keyword", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/courses/{id}": {
            "get": {
                "tags": ["Student"],
                "summary": "Course detail with enrollment eligibility",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/student/courses/{id}/enrollment": {
            "post": {
                "tags": ["Student"],
                "summary": "Enroll in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Ineligible, full or already enrolled", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            },
            "delete": {
                "tags": ["Student"],
                "summary": "Cancel an enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/student/my-courses": {
            "get": {"tags": ["Student"], "summary": "Enrolled courses with attendance rates", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/student/eligibility": {
            "get": {"tags": ["Student"], "summary": "Whether the student may enroll", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/teacher/courses": {
            "get": {"tags": ["Teacher"], "summary": "Courses owned by the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {
                "tags": ["Teacher"],
                "summary": "Register a course for approval",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Room conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/teacher/courses/{id}/attendance": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Attendance sheet for a class date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Teacher"],
                "summary": "Record attendance for a class date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/teacher/courses/{id}/attendance/export": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Download the attendance matrix",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/admin/courses": {
            "get": {
                "tags": ["Admin"],
                "summary": "List courses by status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED", "CLOSED"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/courses/{id}/status": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Approve or reject a pending course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCourseStatusRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}}
            }
        },
        "/admin/courses/approve-all": {
            "post": {"tags": ["Admin"], "summary": "Approve every pending course", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}}
        },
        "/admin/courses/close-expired": {
            "post": {"tags": ["Admin"], "summary": "Close approved courses past their end date", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}}
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List active users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "name", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/notices": {
            "get": {"tags": ["Boards"], "summary": "Notices visible to the student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/student/surveys/{id}/responses": {
            "post": {
                "tags": ["Boards"],
                "summary": "Submit survey answers",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitSurveyRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "SendVerificationRequest": {"type": "object", "properties": {"email": {"type": "string"}}},
        "VerifyCodeRequest": {"type": "object", "properties": {"email": {"type": "string"}, "code": {"type": "string"}}},
        "SignupRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "TEACHER"]},
                "student_id_no": {"type": "string"},
                "verification_code": {"type": "string"}
            }
        },
        "LoginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "RefreshTokenRequest": {"type": "object", "properties": {"refresh_token": {"type": "string"}}},
        "CourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "description": {"type": "string"},
                "course_days": {"type": "string", "example": "Mon,Wed"},
                "course_time": {"type": "string", "example": "15:00-16:30"},
                "room": {"type": "string"},
                "capacity": {"type": "integer"},
                "quarter": {"type": "integer"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "UpdateCourseStatusRequest": {"type": "object", "properties": {"status": {"type": "string", "enum": ["APPROVED", "REJECTED"]}}},
        "BulkResult": {"type": "object", "properties": {"affected": {"type": "integer"}}},
        "AttendanceEntry": {"type": "object", "properties": {"enrollment_id": {"type": "string"}, "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE"]}}},
        "RecordAttendanceRequest": {
            "type": "object",
            "properties": {
                "class_date": {"type": "string", "format": "date"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntry"}}
            }
        },
        "AnswerRequest": {"type": "object", "properties": {"question_id": {"type": "string"}, "content": {"type": "string"}}},
        "SubmitSurveyRequest": {"type": "object", "properties": {"responses": {"type": "array", "items": {"$ref": "#/definitions/AnswerRequest"}}}},
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
        "ErrorEnvelope": {"type": "object", "properties": {"error": {"$ref": "#/definitions/APIError"}}},
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
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
