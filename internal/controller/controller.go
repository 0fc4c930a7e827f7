package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/middleware"
	"github.com/MHGanainy/mvp-backend-sub001/internal/service"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	attemptSvc service.AttemptService
	caseSvc    service.CaseService
	creditSvc  service.CreditService
	jwtSecret  string
}

func NewController(attemptSvc service.AttemptService, caseSvc service.CaseService, creditSvc service.CreditService, jwtSecret string) *Controller {
	return &Controller{
		attemptSvc: attemptSvc,
		caseSvc:    caseSvc,
		creditSvc:  creditSvc,
		jwtSecret:  jwtSecret,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(ctrl.jwtSecret))
	{
		attempts := apiV1.Group("/attempts")
		attempts.POST("", ctrl.CreateAttemptHandler)
		attempts.GET("", ctrl.GetAllAttemptsHandler)
		attempts.GET("/:attempt_id", ctrl.GetAttemptHandler)
		attempts.POST("/:attempt_id/complete", ctrl.CompleteAttemptHandler)
		attempts.POST("/:attempt_id/cancel", ctrl.CancelAttemptHandler)
		attempts.DELETE("/:attempt_id", ctrl.DeleteAttemptHandler)

		cases := apiV1.Group("/cases")
		cases.GET("", ctrl.GetAllCasesHandler)
		cases.GET("/:case_id", ctrl.GetCaseHandler)

		students := apiV1.Group("/students")
		students.GET("/me/credits", ctrl.GetMyCreditsHandler)

		admin := apiV1.Group("/admin")
		admin.Use(middleware.RequirePrivileged())
		admin.PUT("/students/:student_id/credits", ctrl.SetCreditsHandler)
	}
}

// respondError maps service sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrCaseNotFound),
		errors.Is(err, service.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrAttemptAlreadyCompleted),
		errors.Is(err, service.ErrAttemptAlreadyEnded):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrTranscriptUnavailable):
		c.JSON(http.StatusFailedDependency, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrSessionStartFailed):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

func attemptIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("attempt_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid attempt ID format"})
		return 0, false
	}
	return uint(id), true
}

// --- Attempt Handlers ---

// CreateAttemptHandler godoc
// @Summary Start a new case attempt
// @Description Bills the student's credits and opens a realtime voice session for the case
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body dto.CreateAttemptRequest true "Case to attempt and optional voice"
// @Success 201 {object} dto.CreateAttemptResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 402 {object} dto.ErrorResponse "Insufficient credits"
// @Failure 404 {object} dto.ErrorResponse "Student or case not found"
// @Failure 502 {object} dto.ErrorResponse "Voice session could not be started"
// @Router /attempts [post]
func (ctrl *Controller) CreateAttemptHandler(c *gin.Context) {
	var req dto.CreateAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateAttemptRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	resp, err := ctrl.attemptSvc.CreateAttempt(c.Request.Context(), middleware.StudentID(c), middleware.Privileged(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CompleteAttemptHandler godoc
// @Summary Complete an attempt
// @Description Ends the voice session, waits for the transcript and generates the structured assessment
// @Tags attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Failure 424 {object} dto.ErrorResponse "Transcript not yet available"
// @Router /attempts/{attempt_id}/complete [post]
func (ctrl *Controller) CompleteAttemptHandler(c *gin.Context) {
	id, ok := attemptIDParam(c)
	if !ok {
		return
	}

	resp, err := ctrl.attemptSvc.CompleteAttempt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelAttemptHandler godoc
// @Summary Cancel an in-progress attempt
// @Description Ends the voice session without assessment; a partial transcript is retained if present
// @Tags attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/cancel [post]
func (ctrl *Controller) CancelAttemptHandler(c *gin.Context) {
	id, ok := attemptIDParam(c)
	if !ok {
		return
	}

	resp, err := ctrl.attemptSvc.CancelAttempt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteAttemptHandler godoc
// @Summary Delete an attempt
// @Description Removes the attempt, refunding the credit when it never completed
// @Tags attempts
// @Param attempt_id path int true "Attempt ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [delete]
func (ctrl *Controller) DeleteAttemptHandler(c *gin.Context) {
	id, ok := attemptIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.attemptSvc.DeleteAttempt(c.Request.Context(), id, middleware.Privileged(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAttemptHandler godoc
// @Summary Get a single attempt
// @Description Retrieve an attempt with its assessment and transcript. Privileged callers may pass debug=true to include the stored prompts.
// @Tags attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param debug query bool false "Include stored prompts (privileged only)"
// @Success 200 {object} dto.AttemptDebugResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (ctrl *Controller) GetAttemptHandler(c *gin.Context) {
	id, ok := attemptIDParam(c)
	if !ok {
		return
	}

	debug, _ := strconv.ParseBool(c.DefaultQuery("debug", "false"))
	if debug && middleware.Privileged(c) {
		resp, err := ctrl.attemptSvc.GetAttemptDebug(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := ctrl.attemptSvc.GetAttempt(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAllAttemptsHandler godoc
// @Summary List attempts
// @Description Retrieve attempts filtered by student, case, correlation token or completion state
// @Tags attempts
// @Produce json
// @Param student_id query int false "Filter by student ID"
// @Param case_id query int false "Filter by case ID"
// @Param correlation_token query string false "Filter by correlation token"
// @Param completed query bool false "Filter by completion state"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.AttemptResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid filter format"
// @Router /attempts [get]
func (ctrl *Controller) GetAllAttemptsHandler(c *gin.Context) {
	var q dto.ListAttemptsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	attempts, err := ctrl.attemptSvc.ListAttempts(q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// --- Case Handlers ---

// GetAllCasesHandler godoc
// @Summary List simulation cases
// @Tags cases
// @Produce json
// @Success 200 {array} dto.CaseSummaryResponse
// @Router /cases [get]
func (ctrl *Controller) GetAllCasesHandler(c *gin.Context) {
	cases, err := ctrl.caseSvc.GetAllCases()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}

// GetCaseHandler godoc
// @Summary Get a simulation case
// @Description Retrieve a case with its prep materials and marking scheme
// @Tags cases
// @Produce json
// @Param case_id path int true "Case ID"
// @Success 200 {object} dto.CaseResponse
// @Failure 404 {object} dto.ErrorResponse "Case not found"
// @Router /cases/{case_id} [get]
func (ctrl *Controller) GetCaseHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid case ID format"})
		return
	}

	resp, err := ctrl.caseSvc.GetCase(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- Credit Handlers ---

// GetMyCreditsHandler godoc
// @Summary Get the caller's credit balance
// @Tags credits
// @Produce json
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/me/credits [get]
func (ctrl *Controller) GetMyCreditsHandler(c *gin.Context) {
	resp, err := ctrl.creditSvc.GetBalance(middleware.StudentID(c), middleware.Privileged(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetCreditsHandler godoc
// @Summary Override a student's credit balance
// @Description Privileged operation setting the balance to an absolute value
// @Tags credits
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Param credits body dto.SetCreditsRequest true "New absolute balance"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /admin/students/{student_id}/credits [put]
func (ctrl *Controller) SetCreditsHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("student_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid student ID format"})
		return
	}

	var req dto.SetCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind SetCreditsRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	resp, err := ctrl.creditSvc.SetCredits(uint(id), *req.Credits)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
