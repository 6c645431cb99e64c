//go:build swag

package swaggerkit

// generated by go:generate in cmd/postlens-api; registers the "api" instance
import _ "postlens/internal/services/api/docs"
