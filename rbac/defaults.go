package rbac

// Role names used across the CareMesh platform.
const (
	RolePatient = "patient"
	RoleNurse   = "nurse"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// DefaultRoles returns the platform's closed role→permission map. Callers
// may pass their own map to [NewResolver] instead; the resolver copies
// whatever it receives.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RolePatient: {
			"read:own_profile",
			"update:own_profile",
			"read:own_records",
			"read:own_appointments",
			"create:own_appointments",
			"delete:own_appointments",
		},
		RoleNurse: {
			"read:patients",
			"read:records",
			"update:records",
			"read:appointments",
			"update:appointments",
			"read:own_profile",
			"update:own_profile",
		},
		RoleDoctor: {
			"read:patients",
			"update:patients",
			"read:records",
			"create:records",
			"update:records",
			"read:appointments",
			"create:appointments",
			"update:appointments",
			"delete:appointments",
			"create:prescriptions",
			"read:prescriptions",
			"read:own_profile",
			"update:own_profile",
		},
		RoleAdmin: {
			"read:all",
			"create:all",
			"update:all",
			"delete:all",
		},
	}
}

// DefaultEndpoints returns the endpoint→permission table for the platform
// API. Endpoints not listed here are denied for every role.
func DefaultEndpoints() []EndpointRule {
	return []EndpointRule{
		{Method: "GET", Path: "/api/patients", Permission: "read:patients"},
		{Method: "POST", Path: "/api/patients", Permission: "create:patients"},
		{Method: "PUT", Path: "/api/patients", Permission: "update:patients"},
		{Method: "DELETE", Path: "/api/patients", Permission: "delete:patients"},

		{Method: "GET", Path: "/api/records", Permission: "read:records"},
		{Method: "POST", Path: "/api/records", Permission: "create:records"},
		{Method: "PUT", Path: "/api/records", Permission: "update:records"},

		{Method: "GET", Path: "/api/appointments", Permission: "read:appointments"},
		{Method: "POST", Path: "/api/appointments", Permission: "create:appointments"},
		{Method: "PUT", Path: "/api/appointments", Permission: "update:appointments"},
		{Method: "DELETE", Path: "/api/appointments", Permission: "delete:appointments"},

		{Method: "GET", Path: "/api/prescriptions", Permission: "read:prescriptions"},
		{Method: "POST", Path: "/api/prescriptions", Permission: "create:prescriptions"},

		{Method: "GET", Path: "/api/profile", Permission: "read:own_profile"},
		{Method: "PUT", Path: "/api/profile", Permission: "update:own_profile"},

		{Method: "GET", Path: "/api/users", Permission: "read:users"},
		{Method: "DELETE", Path: "/api/users", Permission: "delete:users"},
	}
}
