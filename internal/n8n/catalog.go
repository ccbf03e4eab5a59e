package n8n

import "encoding/json"

// Tools returns the fixed tool catalog exposed over MCP. Schemas are
// kept as raw JSON and flow through the protocol layer untouched.
func Tools() []ToolDef {
	return catalog
}

var catalog = []ToolDef{
	{
		Name:        "list_workflows",
		Description: "List workflows on the n8n instance, optionally filtered by active state.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"active": {"type": "boolean", "description": "Only return workflows with this active state"},
				"limit": {"type": "integer", "description": "Maximum number of workflows to return"}
			}
		}`),
	},
	{
		Name:        "get_workflow",
		Description: "Fetch a single workflow by id, including its nodes and connections.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Workflow id"}
			},
			"required": ["id"]
		}`),
	},
	{
		Name:        "create_workflow",
		Description: "Create a new workflow. Nodes and connections default to empty.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Workflow name"},
				"nodes": {"type": "array", "description": "Workflow node definitions"},
				"connections": {"type": "object", "description": "Node connection map"},
				"settings": {"type": "object", "description": "Workflow settings"}
			},
			"required": ["name"]
		}`),
	},
	{
		Name:        "update_workflow",
		Description: "Replace a workflow's definition by id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Workflow id"},
				"name": {"type": "string", "description": "Workflow name"},
				"nodes": {"type": "array", "description": "Workflow node definitions"},
				"connections": {"type": "object", "description": "Node connection map"},
				"settings": {"type": "object", "description": "Workflow settings"}
			},
			"required": ["id", "name"]
		}`),
	},
	{
		Name:        "delete_workflow",
		Description: "Delete a workflow by id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Workflow id"}
			},
			"required": ["id"]
		}`),
	},
	{
		Name:        "activate_workflow",
		Description: "Activate a workflow so its triggers start firing.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Workflow id"}
			},
			"required": ["id"]
		}`),
	},
	{
		Name:        "deactivate_workflow",
		Description: "Deactivate a workflow, stopping its triggers.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Workflow id"}
			},
			"required": ["id"]
		}`),
	},
	{
		Name:        "list_executions",
		Description: "List workflow executions, optionally filtered by workflow and status.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workflowId": {"type": "string", "description": "Only executions of this workflow"},
				"status": {"type": "string", "enum": ["error", "success", "waiting"], "description": "Only executions with this status"},
				"limit": {"type": "integer", "description": "Maximum number of executions to return"}
			}
		}`),
	},
	{
		Name:        "get_execution",
		Description: "Fetch a single execution by id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Execution id"}
			},
			"required": ["id"]
		}`),
	},
}
