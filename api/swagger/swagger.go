package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Fees API",
        "description": "Fee ledger, payment reconciliation and collection tracking",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Fee Configs", "description": "Monthly fee structure management"},
        {"name": "Batches", "description": "Occasional fee batches"},
        {"name": "Payments", "description": "Online verification and counter collection"},
        {"name": "Tracking", "description": "Collection dashboards and defaulter exports"},
        {"name": "Receipts", "description": "Receipt composition and PDF downloads"},
        {"name": "Dues", "description": "Student dues and payment history"}
    ],
    "paths": {
        "/fee-configs": {
            "get": {
                "tags": ["Fee Configs"],
                "summary": "List configured billing months",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-configs/{monthYear}": {
            "get": {
                "tags": ["Fee Configs"],
                "summary": "Get the fee structure for a billing month",
                "parameters": [
                    {"name": "monthYear", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-configs/{monthYear}/columns": {
            "put": {
                "tags": ["Fee Configs"],
                "summary": "Replace the fee column set for a billing month",
                "parameters": [
                    {"name": "monthYear", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetColumnsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-configs/{monthYear}/columns/{column}": {
            "delete": {
                "tags": ["Fee Configs"],
                "summary": "Remove a fee column and its per-class amounts",
                "parameters": [
                    {"name": "monthYear", "in": "path", "required": true, "type": "string"},
                    {"name": "column", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-configs/{monthYear}/class-amounts": {
            "put": {
                "tags": ["Fee Configs"],
                "summary": "Set the amount of one fee column for one class",
                "parameters": [
                    {"name": "monthYear", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetClassAmountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-configs/{monthYear}/publish": {
            "post": {
                "tags": ["Fee Configs"],
                "summary": "Publish the month: create unpaid records for unbilled students",
                "parameters": [
                    {"name": "monthYear", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches": {
            "get": {
                "tags": ["Batches"],
                "summary": "List occasional batches",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Batches"],
                "summary": "Create a batch and bill its members",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBatchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/summaries": {
            "get": {
                "tags": ["Batches"],
                "summary": "Per-batch collection summaries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/{id}": {
            "get": {
                "tags": ["Batches"],
                "summary": "Get a batch with line items and members",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/verify": {
            "post": {
                "tags": ["Payments"],
                "summary": "Verify a gateway payment and settle the fee record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOnlineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Record already paid"},
                    "502": {"description": "Gateway verification failed"}
                }
            }
        },
        "/payments/counter": {
            "post": {
                "tags": ["Payments"],
                "summary": "Settle a fee record collected in cash at the counter",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CollectCounterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Record already paid"}
                }
            }
        },
        "/payments/batches/{batchId}/students/{studentId}": {
            "post": {
                "tags": ["Payments"],
                "summary": "Settle one batch member's record collected at the counter",
                "parameters": [
                    {"name": "batchId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No record for this batch and student"},
                    "409": {"description": "Record already paid"}
                }
            }
        },
        "/tracking/classes": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Per-class collection progress for a billing month",
                "parameters": [
                    {"name": "monthYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tracking/defaulters": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Unpaid records for a month or batch",
                "parameters": [
                    {"name": "monthYear", "in": "query", "type": "string"},
                    {"name": "batchId", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tracking/defaulters/export": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Download the defaulter list as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "monthYear", "in": "query", "type": "string"},
                    {"name": "batchId", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/tracking/metrics": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Service instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/receipts/{recordId}": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Compose receipt data for a paid record",
                "parameters": [
                    {"name": "recordId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Record not paid"}
                }
            }
        },
        "/receipts/{recordId}/pdf": {
            "post": {
                "tags": ["Receipts"],
                "summary": "Render a receipt PDF and return a signed download link",
                "parameters": [
                    {"name": "recordId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ReceiptOverrides"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Record not paid"}
                }
            }
        },
        "/receipts/download": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Stream a rendered receipt via signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF attachment"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/students/{studentId}/dues": {
            "get": {
                "tags": ["Dues"],
                "summary": "A student's outstanding fee records",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/payments": {
            "get": {
                "tags": ["Dues"],
                "summary": "A student's settled fee records",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FeeRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "institute_id": {"type": "string"},
                "fee_type": {"type": "string"},
                "month_year": {"type": "string"},
                "batch_id": {"type": "string"},
                "breakdown": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BreakdownItem"}
                },
                "total_amount": {"type": "string"},
                "status": {"type": "string"},
                "paid_at": {"type": "string"},
                "payment_id": {"type": "string"},
                "collected_by": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "BreakdownItem": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "SetColumnsRequest": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["columns"]
        },
        "SetClassAmountRequest": {
            "type": "object",
            "properties": {
                "class_name": {"type": "string"},
                "column": {"type": "string"},
                "amount": {"type": "string"}
            },
            "required": ["class_name", "column", "amount"]
        },
        "CreateBatchRequest": {
            "type": "object",
            "properties": {
                "reasons": {"type": "string"},
                "line_items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BatchLineItemRequest"}
                },
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "class_name": {"type": "string"},
                "section": {"type": "string"},
                "select_all": {"type": "boolean"}
            },
            "required": ["reasons", "line_items"]
        },
        "BatchLineItemRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "VerifyOnlineRequest": {
            "type": "object",
            "properties": {
                "record_id": {"type": "string"},
                "order_id": {"type": "string"}
            },
            "required": ["record_id", "order_id"]
        },
        "CollectCounterRequest": {
            "type": "object",
            "properties": {
                "record_id": {"type": "string"},
                "collected_by": {"type": "string"}
            },
            "required": ["record_id"]
        },
        "ReceiptOverrides": {
            "type": "object",
            "properties": {
                "institute": {"type": "object"},
                "student": {"type": "object"}
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
                "pagination": {"type": "object"},
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
