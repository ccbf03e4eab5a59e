// Package n8n is the backend adapter for an n8n workflow automation
// instance. It exposes the REST API as a fixed tool catalog: the rest of
// the gateway only needs Tools and CallTool, and never learns anything
// about the shape of individual workflows.
package n8n
