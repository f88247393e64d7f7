package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/duebook/internal/clock"
	horizondomain "github.com/smallbiznis/duebook/internal/horizon/domain"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	settlementdomain "github.com/smallbiznis/duebook/internal/settlement/domain"
	"gorm.io/datatypes"
)

type createPaymentBody struct {
	ClientID  string            `json:"client_id"`
	ServiceID *string           `json:"service_id,omitempty"`
	DueDate   string            `json:"due_date"`
	Amount    int64             `json:"amount"`
	Notes     *string           `json:"notes,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
}

type updatePaymentBody struct {
	DueDate       *string           `json:"due_date,omitempty"`
	Amount        *int64            `json:"amount,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	IsPaid        *bool             `json:"is_paid,omitempty"`
	PaymentMethod *string           `json:"payment_method,omitempty"`
	Reference     *string           `json:"reference,omitempty"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
}

type markPaidBody struct {
	PaymentMethod string  `json:"payment_method"`
	Reference     *string `json:"reference,omitempty"`
	PeriodsPaid   *int    `json:"periods_paid,omitempty"`
}

func (s *Server) createPayment(c *gin.Context) {
	var body createPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: err.Error()}})
		return
	}

	dueDate, err := parseDate(body.DueDate)
	if err != nil {
		c.Error(paymentdomain.ErrInvalidDueDate)
		return
	}

	payment, err := s.paymentSvc.Create(c.Request.Context(), paymentdomain.CreatePaymentRequest{
		ClientID:  body.ClientID,
		ServiceID: body.ServiceID,
		DueDate:   dueDate,
		Amount:    body.Amount,
		Notes:     body.Notes,
		Metadata:  body.Metadata,
		Actor:     actorFrom(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (s *Server) getPayment(c *gin.Context) {
	payment, err := s.paymentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) updatePayment(c *gin.Context) {
	var body updatePaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: err.Error()}})
		return
	}

	dueDate, err := parseDatePtr(body.DueDate)
	if err != nil {
		c.Error(paymentdomain.ErrInvalidDueDate)
		return
	}

	payment, err := s.paymentSvc.Update(c.Request.Context(), paymentdomain.UpdatePaymentRequest{
		ID:            c.Param("id"),
		DueDate:       dueDate,
		Amount:        body.Amount,
		Notes:         body.Notes,
		IsPaid:        body.IsPaid,
		PaymentMethod: body.PaymentMethod,
		Reference:     body.Reference,
		Metadata:      body.Metadata,
		Actor:         actorFrom(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) markPaid(c *gin.Context) {
	var body markPaidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: err.Error()}})
		return
	}

	periodsPaid := 1
	if body.PeriodsPaid != nil {
		periodsPaid = *body.PeriodsPaid
	}

	payment, err := s.settlementSvc.MarkPaid(c.Request.Context(), settlementdomain.MarkPaidRequest{
		PaymentID:     c.Param("id"),
		PaymentMethod: body.PaymentMethod,
		Reference:     body.Reference,
		PeriodsPaid:   periodsPaid,
		Actor:         actorFrom(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// listUpcomingPayments reads the window from from/to query params; to
// defaults to from plus the horizon lookahead when omitted.
func (s *Server) listUpcomingPayments(c *gin.Context) {
	from := clock.Today(s.clock)
	if raw := c.Query("from"); raw != "" {
		var err error
		from, err = parseDate(raw)
		if err != nil {
			c.Error(paymentdomain.ErrInvalidDueDate)
			return
		}
	}
	to := from.AddDate(0, 0, horizondomain.DefaultLookaheadDays)
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.Error(paymentdomain.ErrInvalidDueDate)
			return
		}
		to = parsed
	}

	payments, err := s.paymentSvc.ListUpcoming(c.Request.Context(), paymentdomain.ListUpcomingRequest{
		From: from,
		To:   to,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) listOverduePayments(c *gin.Context) {
	payments, err := s.paymentSvc.ListOverdue(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) listRecentPayments(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.Error(paymentdomain.ErrInvalidID)
			return
		}
		limit = n
	}

	payments, err := s.paymentSvc.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) paymentSummary(c *gin.Context) {
	summary, err := s.paymentSvc.Summary(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) sweepHorizon(c *gin.Context) {
	lookahead := horizondomain.DefaultLookaheadDays
	if raw := c.Query("lookahead_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: "invalid_lookahead_days"}})
			return
		}
		lookahead = n
	}

	result, err := s.horizonSvc.Sweep(c.Request.Context(), lookahead)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) refreshOverdue(c *gin.Context) {
	flagged, err := s.paymentSvc.RefreshOverdue(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": flagged})
}
