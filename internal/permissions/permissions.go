package permissions

import (
	"fmt"

	"github.com/outsourceats/hirex/internal/models"
)

// Permission is a fine-grained action gate checked per endpoint.
type Permission string

const (
	// User management
	CreateUser  Permission = "create_user"
	ViewUser    Permission = "view_user"
	UpdateUser  Permission = "update_user"
	DeleteUser  Permission = "delete_user"
	ManageRoles Permission = "manage_roles"

	// Client management
	CreateClient Permission = "create_client"
	ViewClient   Permission = "view_client"
	UpdateClient Permission = "update_client"
	DeleteClient Permission = "delete_client"

	// Pitch management
	CreatePitch  Permission = "create_pitch"
	ViewPitch    Permission = "view_pitch"
	UpdatePitch  Permission = "update_pitch"
	DeletePitch  Permission = "delete_pitch"
	SendPitch    Permission = "send_pitch"
	ApprovePitch Permission = "approve_pitch"

	// Job description management
	CreateJD Permission = "create_jd"
	ViewJD   Permission = "view_jd"
	UpdateJD Permission = "update_jd"
	DeleteJD Permission = "delete_jd"
	AssignJD Permission = "assign_jd"

	// Candidate management
	CreateCandidate Permission = "create_candidate"
	ViewCandidate   Permission = "view_candidate"
	UpdateCandidate Permission = "update_candidate"
	DeleteCandidate Permission = "delete_candidate"
	UploadResume    Permission = "upload_resume"

	// Application management
	CreateApplication Permission = "create_application"
	ViewApplication   Permission = "view_application"
	UpdateApplication Permission = "update_application"
	DeleteApplication Permission = "delete_application"
	SubmitApplication Permission = "submit_application"

	// Interview management
	CreateInterview Permission = "create_interview"
	ViewInterview   Permission = "view_interview"
	UpdateInterview Permission = "update_interview"
	DeleteInterview Permission = "delete_interview"
	SubmitFeedback  Permission = "submit_feedback"

	// Offer management
	CreateOffer Permission = "create_offer"
	ViewOffer   Permission = "view_offer"
	UpdateOffer Permission = "update_offer"
	DeleteOffer Permission = "delete_offer"
	SendOffer   Permission = "send_offer"

	// Joining management
	CreateJoining Permission = "create_joining"
	ViewJoining   Permission = "view_joining"
	UpdateJoining Permission = "update_joining"
	DeleteJoining Permission = "delete_joining"

	// Reports and analytics
	ViewReports   Permission = "view_reports"
	ExportData    Permission = "export_data"
	ViewAnalytics Permission = "view_analytics"
)

// rolePermissions is the authorization policy as data. Admin is absent
// on purpose: Has short-circuits to true for that role, and the rest of
// the system relies on that bypass.
var rolePermissions = map[models.Role]map[Permission]bool{
	models.RoleRecruiter: permSet(
		ViewClient,
		ViewPitch,
		ViewJD, UpdateJD,
		CreateCandidate, ViewCandidate, UpdateCandidate, UploadResume,
		CreateApplication, ViewApplication, UpdateApplication, SubmitApplication,
		CreateInterview, ViewInterview, UpdateInterview, SubmitFeedback,
		ViewOffer,
		CreateJoining, ViewJoining, UpdateJoining,
		ViewReports,
	),
	models.RoleAccountManager: permSet(
		CreateClient, ViewClient, UpdateClient,
		CreatePitch, ViewPitch, UpdatePitch, SendPitch,
		CreateJD, ViewJD, UpdateJD, AssignJD,
		ViewCandidate,
		ViewApplication, SubmitApplication,
		ViewInterview,
		CreateOffer, ViewOffer, UpdateOffer, SendOffer,
		CreateJoining, ViewJoining, UpdateJoining,
		ViewReports, ViewAnalytics,
	),
	models.RoleBDSales: permSet(
		CreateClient, ViewClient,
		CreatePitch, ViewPitch, UpdatePitch, SendPitch,
		ViewJD,
		ViewCandidate,
		ViewApplication,
		ViewReports,
	),
	models.RoleFinance: permSet(
		ViewClient,
		ViewPitch,
		ViewJD,
		ViewCandidate,
		ViewApplication,
		ViewOffer,
		ViewJoining,
		ViewReports, ExportData,
	),
	models.RoleClient: permSet(
		ViewJD,
		ViewCandidate,
		ViewApplication,
		ViewInterview,
	),
}

func permSet(perms ...Permission) map[Permission]bool {
	set := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// Has reports whether role holds perm. It is pure and total: unknown
// roles or permissions yield false, never an error.
func Has(role models.Role, perm Permission) bool {
	if role == models.RoleAdmin {
		return true
	}
	return rolePermissions[role][perm]
}

// Require returns an error suitable for a 403 response when role lacks perm.
func Require(role models.Role, perm Permission) error {
	if !Has(role, perm) {
		return fmt.Errorf("permission denied: %s required", perm)
	}
	return nil
}

// ForRole returns the full permission set granted to role. Admin gets
// every permission defined by any role.
func ForRole(role models.Role) []Permission {
	if role == models.RoleAdmin {
		seen := make(map[Permission]bool)
		var all []Permission
		for _, set := range rolePermissions {
			for p := range set {
				if !seen[p] {
					seen[p] = true
					all = append(all, p)
				}
			}
		}
		return all
	}
	var perms []Permission
	for p := range rolePermissions[role] {
		perms = append(perms, p)
	}
	return perms
}
