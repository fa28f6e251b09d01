package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/application"
	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Handler mounts the auction module's HTTP surface on a fiber app.
type Handler struct {
	service application.AuctionService
}

func NewHandler(service application.AuctionService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(app *fiber.App) {
	app.Post("/bids", h.placeBid)
	app.Get("/bids/min", h.minBid)
	app.Get("/bids", h.listBids)

	app.Post("/auctions/close-ended", h.closeEnded)
	app.Post("/auctions", h.createAuction)
	app.Get("/auctions/:id", h.getAuction)
	app.Put("/auctions/:id", h.updateAuction)
	app.Delete("/auctions/:id", h.deleteAuction)
	app.Post("/auctions/:id/activate", h.transition((application.AuctionService).ActivateAuction))
	app.Post("/auctions/:id/pause", h.transition((application.AuctionService).PauseAuction))
	app.Post("/auctions/:id/resume", h.transition((application.AuctionService).ResumeAuction))
	app.Post("/auctions/:id/cancel", h.transition((application.AuctionService).CancelAuction))
}

type placeBidRequest struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	AmountMinor int64     `json:"amount_minor"`
}

func (h *Handler) placeBid(c *fiber.Ctx) error {
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	// identity verification is out of scope, the gateway forwards the
	// authenticated user in this header
	userID, err := uuid.Parse(c.Get("X-User-ID"))
	if err != nil {
		return badRequest(c, "missing or invalid X-User-ID header")
	}

	result, err := h.service.PlaceBid(c.Context(), application.PlaceBidDTO{
		AuctionID:   req.AuctionID,
		UserID:      userID,
		AmountMinor: req.AmountMinor,
	})
	if err != nil {
		return h.respondBidRejection(c, req.AuctionID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bid":               bidJSON(result.Bid),
		"current_bid_minor": result.CurrentBidMinor,
		"end_at":            result.EndAt,
		"extended":          result.Extended,
		"bid_count":         result.BidCount,
	})
}

func (h *Handler) minBid(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Query("auction_id"))
	if err != nil {
		return badRequest(c, "missing or invalid auction_id")
	}

	dto, err := h.service.GetMinBid(c.Context(), auctionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto)
}

func (h *Handler) listBids(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Query("auction_id"))
	if err != nil {
		return badRequest(c, "missing or invalid auction_id")
	}

	page, err := h.service.ListBids(c.Context(), auctionID,
		c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		return respondError(c, err)
	}

	items := make([]fiber.Map, 0, len(page.Bids))
	for _, b := range page.Bids {
		items = append(items, bidJSON(b))
	}
	return c.JSON(fiber.Map{
		"bids":     items,
		"page":     page.Page,
		"per_page": page.PerPage,
		"total":    page.Total,
	})
}

// closeEnded triggers the closing sweep. Scheduler-invoked in production
// but safe to call manually and concurrently.
func (h *Handler) closeEnded(c *fiber.Ctx) error {
	count, err := h.service.CloseExpired(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "close-ended sweep completed",
		"count":   count,
	})
}

type createAuctionRequest struct {
	ProductID         uuid.UUID `json:"product_id"`
	StartAt           time.Time `json:"start_at"`
	EndAt             time.Time `json:"end_at"`
	StartingBidMinor  int64     `json:"starting_bid_minor"`
	ReservePriceMinor *int64    `json:"reserve_price_minor"`
	ActivateNow       bool      `json:"activate_now"`
}

func (h *Handler) createAuction(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	auction, err := h.service.CreateAuction(c.Context(), application.CreateAuctionDTO{
		ProductID:         req.ProductID,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
		StartingBidMinor:  req.StartingBidMinor,
		ReservePriceMinor: req.ReservePriceMinor,
		ActivateNow:       req.ActivateNow,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(auctionJSON(auction))
}

func (h *Handler) getAuction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}

	auction, err := h.service.GetAuction(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(auctionJSON(auction))
}

type updateAuctionRequest struct {
	StartAt           *time.Time `json:"start_at"`
	EndAt             *time.Time `json:"end_at"`
	StartingBidMinor  *int64     `json:"starting_bid_minor"`
	ReservePriceMinor *int64     `json:"reserve_price_minor"`
}

func (h *Handler) updateAuction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req updateAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	auction, err := h.service.UpdateAuction(c.Context(), id, application.UpdateAuctionDTO{
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
		StartingBidMinor:  req.StartingBidMinor,
		ReservePriceMinor: req.ReservePriceMinor,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(auctionJSON(auction))
}

func (h *Handler) deleteAuction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	if err := h.service.DeleteAuction(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// transition builds a handler for the admin state-machine endpoints.
func (h *Handler) transition(fn func(application.AuctionService, context.Context, uuid.UUID) (*domain.Auction, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return badRequest(c, "invalid auction id")
		}
		auction, err := fn(h.service, c.Context(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(auctionJSON(auction))
	}
}

func bidJSON(b *domain.Bid) fiber.Map {
	return fiber.Map{
		"id":           b.ID,
		"auction_id":   b.AuctionID,
		"user_id":      b.UserID,
		"amount_minor": b.AmountMinor,
		"bid_at":       b.BidAt,
	}
}

func auctionJSON(a *domain.Auction) fiber.Map {
	return fiber.Map{
		"id":                  a.ID,
		"product_id":          a.ProductID,
		"start_at":            a.StartAt,
		"end_at":              a.EndAt,
		"starting_bid_minor":  a.StartingBidMinor,
		"reserve_price_minor": a.ReservePriceMinor,
		"current_bid_minor":   a.CurrentBidMinor,
		"winner_id":           a.WinnerID,
		"status":              a.Status,
	}
}

// respondBidRejection enriches the two client-correctable rejections: a
// too-low bid carries the current minimum so the UI can re-prompt, an
// inactive auction carries its status and end time so the client can
// refresh its view.
func (h *Handler) respondBidRejection(c *fiber.Ctx, auctionID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		body := fiber.Map{"code": "bid_too_low", "error": err.Error()}
		if dto, minErr := h.service.GetMinBid(c.Context(), auctionID); minErr == nil && dto != nil {
			body["current_bid"] = dto.CurrentBidMinor
			body["min_bid"] = dto.MinBidMinor
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case errors.Is(err, domain.ErrAuctionNotActive):
		body := fiber.Map{"code": "auction_not_active", "error": err.Error()}
		if a, getErr := h.service.GetAuction(c.Context(), auctionID); getErr == nil && a != nil {
			body["status"] = a.Status
			body["end_at"] = a.EndAt
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	default:
		return respondError(c, err)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":  "validation_error",
		"error": msg,
	})
}

// respondError maps domain errors to the HTTP taxonomy: 400 validation,
// 404 unknown, 422 rejected, 409 retryable contention, 500 everything else.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrProductInAuction):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code": "validation_error", "error": err.Error(),
		})
	case errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found", "error": err.Error(),
		})
	case errors.Is(err, domain.ErrAuctionNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"code": "auction_not_active", "error": err.Error(),
		})
	case errors.Is(err, domain.ErrBidTooLow):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"code": "bid_too_low", "error": err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"code": "invalid_transition", "error": err.Error(),
		})
	case errors.Is(err, domain.ErrContention):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code": "contention", "error": "auction busy, refresh min bid and retry", "retryable": true,
		})
	default:
		log.Error("Unhandled error in auction HTTP handler", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal_error", "error": "internal server error",
		})
	}
}
