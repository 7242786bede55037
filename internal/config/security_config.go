package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

// AdminReviewServiceName is the fully qualified gRPC service name.
const AdminReviewServiceName = "alumni.registration.v1.AdminReviewService"

// EndpointSecurityConfig maps gRPC methods to their required security level.
// Role checks happen in the service layer against the caller's session.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/" + AdminReviewServiceName + "/ListQueue":        SecurityAccess,
	"/" + AdminReviewServiceName + "/ApproveItem":      SecurityAccess,
	"/" + AdminReviewServiceName + "/RejectItem":       SecurityAccess,
	"/" + AdminReviewServiceName + "/DeleteQueueItems": SecurityAccess,
	"/" + AdminReviewServiceName + "/DeleteAlumni":     SecurityAccess,
	"/" + AdminReviewServiceName + "/GetStats":         SecurityAccess,
	"/" + AdminReviewServiceName + "/RepairIntakes":    SecurityAccess,
	"/" + AdminReviewServiceName + "/ListEmailLogs":    SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
