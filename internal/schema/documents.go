package schema

const perfSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "load_profile", "scenarios"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "environment": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1},
    "success_threshold": {"type": "number", "minimum": 0, "maximum": 100},
    "stream_metrics": {"type": "boolean"},
    "metrics_interval_secs": {"type": "integer", "minimum": 1},
    "dashboard": {"type": "boolean"},
    "history_path": {"type": "string"},
    "load_profile": {
      "type": "object",
      "required": ["type", "stages"],
      "properties": {
        "type": {
          "type": "string",
          "enum": ["constant_vus", "ramping_vus", "constant_arrival_rate", "ramping_arrival_rate", "spike"]
        },
        "initial": {"type": "integer", "minimum": 0},
        "stages": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["duration_secs", "target"],
            "properties": {
              "duration_secs": {"type": "integer", "minimum": 1},
              "target": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    },
    "scenarios": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "url"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "method": {"type": "string"},
          "headers": {"type": "object", "additionalProperties": {"type": "string"}},
          "body": {"type": "string"},
          "weight": {"type": "integer", "minimum": 0},
          "tags": {"type": "object", "additionalProperties": {"type": "string"}},
          "metrics": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "json_path"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "json_path": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    },
    "thresholds": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["metric", "expression"],
        "properties": {
          "metric": {"type": "string", "minLength": 1},
          "expression": {"type": "string", "minLength": 1},
          "abort_on_fail": {"type": "boolean"}
        }
      }
    },
    "tracing": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "endpoint": {"type": "string"},
        "protocol": {"type": "string", "enum": ["grpc", "http"]},
        "service_name": {"type": "string"},
        "sample_rate": {"type": "number", "minimum": 0, "maximum": 1},
        "insecure": {"type": "boolean"}
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "json": {"type": "boolean"},
        "result_path": {"type": "string"},
        "html_path": {"type": "string"},
        "csv_path": {"type": "string"},
        "xml_path": {"type": "string"}
      }
    }
  }
}`

const apiSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "url"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "url": {"type": "string", "minLength": 1},
    "method": {"type": "string"},
    "headers": {"type": "object", "additionalProperties": {"type": "string"}},
    "body": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1},
    "feed": {"type": "string"},
    "expect_status": {"type": "array", "items": {"type": "integer"}},
    "assertions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["json_path"],
        "properties": {
          "json_path": {"type": "string", "minLength": 1},
          "equals": {"type": "string"},
          "contains": {"type": "string"},
          "exists": {"type": "boolean"}
        }
      }
    },
    "retry": {"$ref": "#/definitions/retry"}
  },
  "definitions": {
    "retry": {
      "type": "object",
      "properties": {
        "max_retries": {"type": "integer", "minimum": 0},
        "initial_delay_ms": {"type": "integer", "minimum": 1},
        "max_delay_ms": {"type": "integer", "minimum": 1},
        "retry_status_codes": {"type": "array", "items": {"type": "integer"}},
        "retry_on_timeout": {"type": "boolean"},
        "retry_on_connection_error": {"type": "boolean"},
        "backoff_multiplier": {"type": "number"},
        "jitter_fraction": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

const collectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1},
    "variables": {"type": "object", "additionalProperties": {"type": "string"}},
    "retry": {
      "type": "object",
      "properties": {
        "max_retries": {"type": "integer", "minimum": 0},
        "initial_delay_ms": {"type": "integer", "minimum": 1},
        "max_delay_ms": {"type": "integer", "minimum": 1},
        "retry_status_codes": {"type": "array", "items": {"type": "integer"}},
        "retry_on_timeout": {"type": "boolean"},
        "retry_on_connection_error": {"type": "boolean"},
        "backoff_multiplier": {"type": "number"},
        "jitter_fraction": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "url"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "method": {"type": "string"},
          "headers": {"type": "object", "additionalProperties": {"type": "string"}},
          "body": {"type": "string"},
          "depends_on": {"type": "string"},
          "expect_status": {"type": "array", "items": {"type": "integer"}},
          "capture": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["variable"],
              "properties": {
                "variable": {"type": "string", "minLength": 1},
                "json_path": {"type": "string"},
                "regex": {"type": "string"}
              }
            }
          },
          "assertions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["json_path"],
              "properties": {
                "json_path": {"type": "string", "minLength": 1},
                "equals": {"type": "string"},
                "contains": {"type": "string"},
                "exists": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`
