package result

import (
	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/httpapi"
	"fincheck-controlplane/pkg/middleware"
	"fincheck-controlplane/pkg/task"
	"fincheck-controlplane/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

type Handler struct {
	svc *Service
	enq task.Enqueuer
}

func NewHandler(svc *Service, enq task.Enqueuer) *Handler {
	return &Handler{svc: svc, enq: enq}
}

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	r.Public.GET("/leaderboard", h.Leaderboard)

	r.User.POST("/results", h.Submit)
	r.User.GET("/results", h.History)
	r.User.GET("/results/:id", h.Get)
	r.User.GET("/me/summary", h.Summary)

	r.Admin.POST("/leaderboard/rebuild", h.Rebuild)
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid request body", err))
		return
	}
	req.UserID = middleware.UserID(c)

	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.Created(c, "test result saved", resp)
}

func (h *Handler) History(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	rows, info, err := h.svc.History(c.Request.Context(), middleware.UserID(c), p)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", gin.H{"items": rows, "page_info": info})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", res)
}

func (h *Handler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", sum)
}

type leaderboardQuery struct {
	Period Period `form:"period"`
	Limit  int    `form:"limit"`
}

func (h *Handler) Leaderboard(c *gin.Context) {
	var q leaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpapi.Fail(c, errutil.ValidationFailed("invalid query", err))
		return
	}

	entries, err := h.svc.Leaderboard(c.Request.Context(), q.Period, q.Limit)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", entries)
}

func (h *Handler) Rebuild(c *gin.Context) {
	t := asynq.NewTask(taskname.LeaderboardRebuild, nil)
	info, err := h.enq.Enqueue(t, asynq.Queue(taskname.QueueLow), asynq.Unique(leaderboardRebuildUniqueTTL))
	if err != nil {
		httpapi.Fail(c, errutil.ServiceUnavailable("unable to schedule leaderboard rebuild", err))
		return
	}
	httpapi.OK(c, "leaderboard rebuild scheduled", gin.H{"task_id": info.ID})
}
