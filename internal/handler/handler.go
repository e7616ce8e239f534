package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hosteldesk/internal/account"
	"hosteldesk/internal/apperr"
	"hosteldesk/internal/attendance"
	"hosteldesk/internal/auth"
	"hosteldesk/internal/config"
	"hosteldesk/internal/report"
	"hosteldesk/internal/roomchange"
)

// Handler wires the business services to gin routes.
type Handler struct {
	cfg      config.App
	accounts *account.Service
	att      *attendance.Service
	rooms    *roomchange.Service
}

// New creates a handler.
func New(cfg config.App, accounts *account.Service, att *attendance.Service, rooms *roomchange.Service) *Handler {
	return &Handler{cfg: cfg, accounts: accounts, att: att, rooms: rooms}
}

// Routes registers the API surface on r.
func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/student/register", h.RegisterStudent)
	api.POST("/login", h.Login)

	student := api.Group("", auth.Require(h.cfg.JWTSigningKey, h.cfg.JWTIssuer, auth.RoleStudent))
	student.GET("/me", h.Me)
	student.POST("/attendance/mark", h.MarkAttendance)
	student.POST("/student/room-change-request", h.SubmitRoomChange)
	student.GET("/student/room-change-status", h.RoomChangeStatus)
	student.GET("/student/room-change-notification", h.RoomChangeNotification)
	student.POST("/student/room-change-notification/clear", h.ClearRoomChangeNotification)

	warden := api.Group("/admin", auth.Require(h.cfg.JWTSigningKey, h.cfg.JWTIssuer, auth.RoleWarden))
	warden.GET("/report", h.Report)
	warden.GET("/report/export", h.ReportCSV)
	warden.GET("/room-requests", h.ListRoomRequests)
	warden.POST("/room-requests/:id/approve", h.ApproveRoomRequest)
	warden.POST("/room-requests/:id/reject", h.RejectRoomRequest)
}

// respondErr maps the error taxonomy to HTTP statuses. Unexpected errors
// are logged and surfaced as a generic 500.
func respondErr(c *gin.Context, err error) {
	if kind, ok := apperr.KindOf(err); ok {
		status := http.StatusInternalServerError
		switch kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindAuth:
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// RegisterStudent handles student self-registration.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var in account.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}
	a, err := h.accounts.RegisterStudent(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered", "regNo": a.RegNo})
}

// Login authenticates a student or warden and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		RegNo    string `json:"regNo" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "regNo and password are required"})
		return
	}
	a, err := h.accounts.Authenticate(c.Request.Context(), req.RegNo, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	token, exp, err := auth.Issue(a.ID, a.Role, a.Name, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"role":       a.Role,
		"expires_at": exp.Unix(),
	})
}

// Me returns the calling account.
func (h *Handler) Me(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	a, err := h.accounts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// MarkAttendance records today's attendance for the caller.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	claims := auth.ClaimsFrom(c)
	rec, err := h.att.Mark(c.Request.Context(), claims.Subject, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": rec.Date, "status": rec.Status})
}

// SubmitRoomChange creates a pending room-change request for the caller.
func (h *Handler) SubmitRoomChange(c *gin.Context) {
	var req struct {
		NewRoom string `json:"newRoom" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newRoom is required"})
		return
	}
	claims := auth.ClaimsFrom(c)
	out, err := h.rooms.Submit(c.Request.Context(), claims.Subject, req.NewRoom)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": out.ID, "status": out.Status, "newRoom": out.NewRoom})
}

// RoomChangeStatus reports whether the caller has a pending request.
func (h *Handler) RoomChangeStatus(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	st, err := h.rooms.Pending(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// RoomChangeNotification returns the caller's latest decided request.
func (h *Handler) RoomChangeNotification(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	n, err := h.rooms.Notification(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// ClearRoomChangeNotification acknowledges and deletes decided requests.
func (h *Handler) ClearRoomChangeNotification(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	if err := h.rooms.ClearNotifications(c.Request.Context(), claims.Subject); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

func (h *Handler) buildReport(c *gin.Context) (report.Report, bool) {
	date := c.Query("date")
	if date == "" {
		date = h.att.Today()
	}
	ctx := c.Request.Context()
	students, err := h.accounts.ListStudents(ctx)
	if err != nil {
		respondErr(c, err)
		return report.Report{}, false
	}
	records, err := h.att.RecordsFor(ctx, date)
	if err != nil {
		respondErr(c, err)
		return report.Report{}, false
	}
	return report.Build(students, records, date, c.Query("filter"), h.att.Now()), true
}

// Report returns the per-room attendance breakdown for a date.
func (h *Handler) Report(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

// ReportCSV streams the report as a CSV download.
func (h *Handler) ReportCSV(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="attendance-`+rep.Date+`.csv"`)
	if err := report.WriteCSV(c.Writer, rep); err != nil {
		log.Printf("csv export failed: %v", err)
	}
}

// ListRoomRequests returns room-change requests for review.
func (h *Handler) ListRoomRequests(c *gin.Context) {
	items, err := h.rooms.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if items == nil {
		items = []roomchange.ListItem{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": items})
}

// ApproveRoomRequest approves a pending request and moves the student.
func (h *Handler) ApproveRoomRequest(c *gin.Context) {
	req, err := h.rooms.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID, "status": req.Status})
}

// RejectRoomRequest rejects a pending request.
func (h *Handler) RejectRoomRequest(c *gin.Context) {
	req, err := h.rooms.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID, "status": req.Status})
}
