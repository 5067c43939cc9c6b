package mcp

const instructions = `repolens answers research questions about code on GitHub and in package registries.
Every tool takes a "queries" array; batch independent lookups into one call.
Each result carries a status (hasResults, empty or error) and the status hints suggest the next step.`

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	for _, t := range s.tools {
		s.mcp.AddTool(t.Definition, s.handleTool(t))
	}
}
