package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/middleware"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

type ProjectMemberHandler struct {
	memberService *services.MemberService
}

func NewProjectMemberHandler(memberService *services.MemberService) *ProjectMemberHandler {
	return &ProjectMemberHandler{memberService: memberService}
}

func (h *ProjectMemberHandler) authorize(c *gin.Context, projectID uuid.UUID, action services.Action) bool {
	actor := middleware.ActorID(c)
	if actor == nil {
		return true
	}
	if err := h.memberService.Authorize(projectID, *actor, action); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// Add adds a member to a project
// POST /api/projects/:projectID/members
func (h *ProjectMemberHandler) Add(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if !h.authorize(c, projectID, services.ActionManageMembers) {
		return
	}

	member, err := h.memberService.Add(projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// List returns a project's members in join order
// GET /api/projects/:projectID/members
func (h *ProjectMemberHandler) List(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	members, err := h.memberService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// Get returns one membership row
// GET /api/projects/:projectID/members/:userID
func (h *ProjectMemberHandler) Get(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	member, err := h.memberService.Get(projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// UpdateRole changes a member's role
// PATCH /api/projects/:projectID/members/:userID
func (h *ProjectMemberHandler) UpdateRole(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if !h.authorize(c, projectID, services.ActionManageMembers) {
		return
	}

	member, err := h.memberService.UpdateRole(projectID, userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// Remove removes a member from a project
// DELETE /api/projects/:projectID/members/:userID
func (h *ProjectMemberHandler) Remove(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if !h.authorize(c, projectID, services.ActionManageMembers) {
		return
	}

	if err := h.memberService.Remove(projectID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type transferOwnershipRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// TransferOwnership makes another member the project owner
// POST /api/projects/:projectID/transfer-ownership
func (h *ProjectMemberHandler) TransferOwnership(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req transferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if !h.authorize(c, projectID, services.ActionTransferOwnership) {
		return
	}

	member, err := h.memberService.TransferOwnership(projectID, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}
