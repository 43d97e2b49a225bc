package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/app/repository"
	"github.com/xpert786/SurePoint/internal/pkg/entitlements"
	"github.com/xpert786/SurePoint/internal/pkg/env"
	"github.com/xpert786/SurePoint/internal/pkg/mail"
	"github.com/xpert786/SurePoint/internal/pkg/security"
	"github.com/xpert786/SurePoint/internal/pkg/usercontext"
)

// Invite links stay valid for three days.
const inviteTokenTTL = 72 * time.Hour

type inviteMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func validMemberRole(role string) bool {
	return role == models.ROLE_ADMIN || role == models.ROLE_MEMBER
}

// HandleListTeam returns the account's team members with their role
// permissions resolved.
func HandleListTeam(c *fiber.Ctx) error {
	ownerID := usercontext.GetUserID(c)

	members, err := repository.GetGlobalFactory().GetTeamRepository().ListByOwner(ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "team list failed"})
	}

	out := make([]fiber.Map, 0, len(members))
	for _, m := range members {
		out = append(out, fiber.Map{
			"user_id":     m.UserID,
			"role":        m.Role,
			"status":      m.Status,
			"permissions": models.PermissionsForRole(m.Role),
		})
	}

	return c.JSON(fiber.Map{"members": out, "total": len(out)})
}

// HandleInviteMember creates an invited user account and attaches it to the
// owner's team, enforcing the plan's seat limit.
func HandleInviteMember(c *fiber.Ctx) error {
	ownerID := usercontext.GetUserID(c)

	owner, err := repositoryUser(ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "account load failed"})
	}

	var req inviteMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.ROLE_MEMBER
	}
	if !validMemberRole(role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "role must be admin or member"})
	}

	teamRepo := repository.GetGlobalFactory().GetTeamRepository()
	if limit := entitlements.SeatLimit(owner.Billing.Plan); limit >= 0 {
		seats, err := teamRepo.CountByOwner(ownerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "seat count failed"})
		}
		if seats >= int64(limit) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "seat_limit_reached", "message": "your plan has no free seats left"})
		}
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	member, err := userRepo.GetByEmail(strings.TrimSpace(req.Email))
	invited := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		invited = true
		member = &models.User{
			Name:          strings.TrimSpace(req.Name),
			Email:         strings.TrimSpace(req.Email),
			Role:          role,
			Status:        models.STATUS_INACTIVE,
			PaymentStatus: models.PaymentStatusUnpaid,
			Billing:       models.BillingRecord{Status: models.BillingStatusInactive},
		}
		if err := member.GenerateActivationToken(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "invite token failed"})
		}
		// Invited users set their password through the activation link.
		if err := member.SetPassword(member.ActivationToken); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "invite failed"})
		}
		if err := member.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		}
		if err := userRepo.Create(member); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "invite failed"})
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "lookup failed"})
	}

	if err := teamRepo.Add(&models.TeamMember{
		OwnerID: ownerID,
		UserID:  member.ID,
		Role:    role,
		Status:  models.TeamMemberStatusInvited,
	}); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "user is already on the team"})
	}

	if invited {
		sendInviteEmail(owner, member, role)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":     member.ID,
		"role":        role,
		"status":      models.TeamMemberStatusInvited,
		"permissions": models.PermissionsForRole(role),
	})
}

// sendInviteEmail mails the activation link to a freshly invited member.
// Best effort: a failed mail never fails the invite, the token can be
// re-issued by inviting again.
func sendInviteEmail(owner, member *models.User, role string) {
	secret := env.GetEnv("APP_SECRET", "")
	token, err := security.GenerateInviteToken(owner.ID, member.ID, role, inviteTokenTTL, secret)
	if err != nil {
		log.Warnf("[Team] invite token for user %d failed: %v", member.ID, err)
		return
	}

	publicDomain := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	link := publicDomain + "/activate?token=" + token
	body := fmt.Sprintf(
		"<p>%s invited you to their SurePoint workspace as %s.</p><p><a href=%q>Accept the invitation</a></p>",
		owner.Name, role, link,
	)
	if err := mail.SendMail(member.Email, "You have been invited to SurePoint", body); err != nil {
		log.Warnf("[Team] invite mail to %s failed: %v", member.Email, err)
	}
}

type activateInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleActivateInvite redeems an invite token: the invited user picks their
// password and both the user account and the team membership become active.
func HandleActivateInvite(c *fiber.Ctx) error {
	var req activateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "password must have at least 6 characters"})
	}

	claims, err := security.VerifyInviteToken(req.Token, env.GetEnv("APP_SECRET", ""))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "invalid or expired invite token"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	member, err := userRepo.GetByID(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "invited account not found"})
	}
	if err := member.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "activation failed"})
	}
	member.Status = models.STATUS_ACTIVE
	member.ActivationToken = ""
	if err := userRepo.Update(member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "activation failed"})
	}

	if err := repository.GetGlobalFactory().GetTeamRepository().SetStatus(claims.OwnerID, member.ID, models.TeamMemberStatusActive); err != nil {
		log.Warnf("[Team] membership activation for user %d failed: %v", member.ID, err)
	}

	return c.JSON(fiber.Map{"ok": true, "user_id": member.ID})
}

// HandleChangeMemberRole updates an existing member's role.
func HandleChangeMemberRole(c *fiber.Ctx) error {
	ownerID := usercontext.GetUserID(c)

	memberID, err := c.ParamsInt("userId")
	if err != nil || memberID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid member id"})
	}

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if !validMemberRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "role must be admin or member"})
	}

	teamRepo := repository.GetGlobalFactory().GetTeamRepository()
	if _, err := teamRepo.GetMember(ownerID, uint(memberID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "team member not found"})
	}
	if err := teamRepo.UpdateRole(ownerID, uint(memberID), req.Role); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "role update failed"})
	}

	return c.JSON(fiber.Map{
		"user_id":     memberID,
		"role":        req.Role,
		"permissions": models.PermissionsForRole(req.Role),
	})
}

// HandleRemoveMember detaches a member from the team. The user account stays.
func HandleRemoveMember(c *fiber.Ctx) error {
	ownerID := usercontext.GetUserID(c)

	memberID, err := c.ParamsInt("userId")
	if err != nil || memberID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid member id"})
	}

	if err := repository.GetGlobalFactory().GetTeamRepository().Remove(ownerID, uint(memberID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "team member not found"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// HandleTeamPermissions exposes the static role -> permission map.
func HandleTeamPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		models.ROLE_OWNER:  models.PermissionsForRole(models.ROLE_OWNER),
		models.ROLE_ADMIN:  models.PermissionsForRole(models.ROLE_ADMIN),
		models.ROLE_MEMBER: models.PermissionsForRole(models.ROLE_MEMBER),
	})
}
