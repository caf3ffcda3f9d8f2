package rbac

// Permission is a single named capability resolved from a role.
type Permission string

const (
	PermRead   Permission = "read"
	PermWrite  Permission = "write"
	PermDelete Permission = "delete"
	PermAdmin  Permission = "admin"

	PermCreateUsers Permission = "create_users"
	PermReadUsers   Permission = "read_users"
	PermUpdateUsers Permission = "update_users"
	PermDeleteUsers Permission = "delete_users"

	PermCreateRoomData Permission = "create_room_data"
	PermReadRoomData   Permission = "read_room_data"
	PermUpdateRoomData Permission = "update_room_data"
	PermDeleteRoomData Permission = "delete_room_data"
)

var allPermissions = []Permission{
	PermRead, PermWrite, PermDelete, PermAdmin,
	PermCreateUsers, PermReadUsers, PermUpdateUsers, PermDeleteUsers,
	PermCreateRoomData, PermReadRoomData, PermUpdateRoomData, PermDeleteRoomData,
}

// Non-admin roles get read/create access to room data only. Any role
// outside the closed set resolves to no permissions at all.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: allPermissions,
	RoleUser: {
		PermRead, PermWrite,
		PermReadRoomData, PermCreateRoomData,
	},
	RoleViewer: {
		PermRead, PermWrite,
		PermReadRoomData, PermCreateRoomData,
	},
}

func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

func (r Role) Has(p Permission) bool {
	for _, got := range rolePermissions[r] {
		if got == p {
			return true
		}
	}
	return false
}

func (r Role) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !r.Has(p) {
			return false
		}
	}
	return true
}
