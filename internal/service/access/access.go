// Package access 访问控制判定
// 所有判定均为纯函数，不访问存储，由调用方先加载资源
package access

import "github.com/dumeirei/spacer-backend/internal/models"

// 角色
const (
	RoleClient = models.RoleClient
	RoleOwner  = models.RoleOwner
	RoleAdmin  = models.RoleAdmin
)

// Actor 当前请求的操作者，角色以数据库存储为准
type Actor struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// FromUser 由用户记录构造操作者
func FromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Resource 可判定所有者的资源
type Resource interface {
	OwnerUserID() int64
}

// ClientResource 可判定预订客户的资源
type ClientResource interface {
	ClientUserID() int64
}

// HasRole 判断操作者是否具有任一角色
func HasRole(a Actor, roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin 是否管理员
func IsAdmin(a Actor) bool {
	return a.Role == RoleAdmin
}

// IsOwnerOf 是否资源所有者
func IsOwnerOf(a Actor, r Resource) bool {
	if r == nil {
		return false
	}
	return a.ID != 0 && r.OwnerUserID() == a.ID
}

// IsClientOf 是否资源的预订客户
func IsClientOf(a Actor, r ClientResource) bool {
	if r == nil {
		return false
	}
	return a.ID != 0 && r.ClientUserID() == a.ID
}

// CanManage 管理员或所有者
func CanManage(a Actor, r Resource) bool {
	return IsAdmin(a) || IsOwnerOf(a, r)
}

// CanView 管理员、所有者或客户
func CanView(a Actor, r interface {
	Resource
	ClientResource
}) bool {
	return IsAdmin(a) || IsOwnerOf(a, r) || IsClientOf(a, r)
}

// ValidRole 是否合法角色
func ValidRole(role string) bool {
	return role == RoleClient || role == RoleOwner || role == RoleAdmin
}
