package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "VolunTrack API",
        "description": "Volunteer management: departments, events, signups, contribution review and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Registration, login and sessions"},
        {"name": "Profile", "description": "Self-service profile"},
        {"name": "Departments", "description": "Department management"},
        {"name": "Events", "description": "Events and signups"},
        {"name": "Contributions", "description": "Volunteer hour logs"},
        {"name": "Approvals", "description": "Coordinator review queue"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF exports"},
        {"name": "Dashboard", "description": "Role-aware landing page"},
        {"name": "Reports", "description": "Aggregated statistics"},
        {"name": "Users", "description": "Role management"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a volunteer account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Token revoked or expired"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Get own profile",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Update phone and department",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create department (admin)",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Department detail",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Update department (admin)",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Delete department (admin)",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events with status, search and mine filters",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create event (coordinator or admin)",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Event detail with participants and approved hours",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update own event",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the creator"}}
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete own event",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/events/{id}/status": {
            "patch": {
                "tags": ["Events"],
                "summary": "Transition event lifecycle status",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/events/{id}/signup": {
            "post": {
                "tags": ["Events"],
                "summary": "Sign up for an event",
                "responses": {
                    "201": {"description": "Confirmed"},
                    "409": {"description": "Capacity exceeded or duplicate signup"}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Cancel own signup",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/signups": {
            "get": {
                "tags": ["Events"],
                "summary": "List own signups",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/logs": {
            "get": {
                "tags": ["Contributions"],
                "summary": "List own contribution logs",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Contributions"],
                "summary": "Log a contribution",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "No confirmed signup for the event"}
                }
            }
        },
        "/logs/{id}": {
            "get": {
                "tags": ["Contributions"],
                "summary": "Contribution detail",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/logs/{id}/status": {
            "patch": {
                "tags": ["Contributions"],
                "summary": "Correct review status (admin)",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/logs/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a CSV or PDF export",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/logs/export/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status with signed download URL",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/logs/export/{id}/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export",
                "responses": {"200": {"description": "File"}, "401": {"description": "Invalid token"}}
            }
        },
        "/approvals": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Review queue with per-status counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/approvals/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve a pending contribution",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed"}}
            }
        },
        "/approvals/{id}/reject": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Reject a pending contribution",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Role-aware dashboard summary",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "Participation reports for an optional date window",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/{id}/promote": {
            "post": {
                "tags": ["Users"],
                "summary": "Promote volunteer to coordinator (admin)",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/users/{id}/demote": {
            "post": {
                "tags": ["Users"],
                "summary": "Demote coordinator to volunteer (admin)",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Integrity guard"}}
            }
        }
    },
    "definitions": {
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
