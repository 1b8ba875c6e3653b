package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Cheertaboi/smaphregi/internal/concurrency"
	"github.com/Cheertaboi/smaphregi/internal/i18n"
	"github.com/Cheertaboi/smaphregi/internal/metrics"
	"github.com/Cheertaboi/smaphregi/internal/models"
	"github.com/Cheertaboi/smaphregi/internal/session"
	"github.com/Cheertaboi/smaphregi/internal/transport"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidBarcode  = errors.New("barcode is required")
	ErrInvalidQuantity = errors.New("quantity out of range")
	ErrOrderMismatch   = errors.New("order does not belong to session")
)

// CartView is the aggregated cart returned after every cart operation.
type CartView struct {
	Items    []models.AggregatedLineItem `json:"items"`
	Totals   CartTotals                  `json:"totals"`
	CouponID *string                     `json:"couponId"`
}

type ScanResult struct {
	Found bool     `json:"found"`
	Cart  CartView `json:"cart"`
}

type CheckoutResult struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}

type Options struct {
	LookupWorkers int
	NewOrderID    func() string
}

// CheckoutService runs one shopper's checkout against the session store and
// the backend transport. Operations on the same session never interleave
// within this process.
type CheckoutService struct {
	store   session.Store
	backend transport.Transport
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
	locks   keyedMutex
}

func NewCheckoutService(store session.Store, backend transport.Transport, logger *zap.Logger, m *metrics.Metrics, opts Options) *CheckoutService {
	if opts.LookupWorkers <= 0 {
		opts.LookupWorkers = 4
	}
	if opts.NewOrderID == nil {
		opts.NewOrderID = uuid.NewString
	}
	return &CheckoutService{
		store:   store,
		backend: backend,
		logger:  logger,
		metrics: m,
		opts:    opts,
	}
}

func (s *CheckoutService) StartSession(ctx context.Context, locale, idToken string) (*session.Session, error) {
	sess := session.New(i18n.Normalize(locale), idToken)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("session started", zap.String("session_id", sess.ID), zap.String("locale", sess.Locale))
	return sess, nil
}

// Session returns the stored session without modifying it.
func (s *CheckoutService) Session(ctx context.Context, sid string) (*session.Session, error) {
	return s.store.Get(ctx, sid)
}

// withSession loads the session, runs fn and saves the result when fn
// reports a change.
func (s *CheckoutService) withSession(ctx context.Context, sid string, fn func(sess *session.Session) (bool, error)) (*session.Session, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	sess, err := s.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	changed, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if changed {
		sess.UpdatedAt = time.Now().UTC()
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return sess, nil
}

// ensureCoupons fetches the coupon list once per session.
func (s *CheckoutService) ensureCoupons(ctx context.Context, sess *session.Session) (bool, error) {
	if sess.CouponsLoaded {
		return false, nil
	}
	coupons, err := s.backend.FetchCoupons(ctx, sess.Locale)
	if err != nil {
		s.backendFailed("fetch_coupons", err)
		return false, fmt.Errorf("fetch coupons: %w", err)
	}
	sess.Coupons = coupons
	sess.CouponsLoaded = true
	return true, nil
}

func (s *CheckoutService) Coupons(ctx context.Context, sid string) ([]models.Coupon, error) {
	sess, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		return s.ensureCoupons(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess.Coupons, nil
}

func view(sess *session.Session, current *models.ScannedItem) CartView {
	lines := Aggregate(NewCouponMatcher(sess.Coupons), sess.Items, current)
	return CartView{
		Items:    lines,
		Totals:   Totals(lines),
		CouponID: StorewideCouponID(sess.Coupons),
	}
}

func (s *CheckoutService) Cart(ctx context.Context, sid string) (CartView, error) {
	sess, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		return s.ensureCoupons(ctx, sess)
	})
	if err != nil {
		return CartView{}, err
	}
	return view(sess, nil), nil
}

// Scan looks the barcode up and adds one unit. An unknown barcode leaves the
// cart untouched and reports Found=false.
func (s *CheckoutService) Scan(ctx context.Context, sid, barcode string) (ScanResult, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return ScanResult{}, ErrInvalidBarcode
	}

	var res ScanResult
	_, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		changed, err := s.ensureCoupons(ctx, sess)
		if err != nil {
			return false, err
		}

		p, err := s.backend.LookupBarcode(ctx, barcode, sess.Locale)
		if err != nil {
			s.backendFailed("lookup_barcode", err)
			return false, fmt.Errorf("lookup barcode %s: %w", barcode, err)
		}
		if p == nil {
			s.metrics.Scans.WithLabelValues("not_found").Inc()
			s.logger.Info("barcode not found", zap.String("session_id", sid), zap.String("barcode", barcode))
			res = ScanResult{Found: false, Cart: view(sess, nil)}
			return changed, nil
		}

		item := p.ScannedItem(barcode)
		res = ScanResult{Found: true, Cart: view(sess, &item)}
		sess.Items = append(sess.Items, item)
		s.metrics.Scans.WithLabelValues("found").Inc()
		return true, nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	return res, nil
}

// MaxQuantity bounds the count a single cart line can be set to.
const MaxQuantity = 999

// SetQuantity replaces every scan of barcode by a single line of count units,
// kept where the barcode first appeared. A count of zero or less removes the
// barcode.
func (s *CheckoutService) SetQuantity(ctx context.Context, sid, barcode string, count int64) (CartView, error) {
	if count > MaxQuantity {
		return CartView{}, ErrInvalidQuantity
	}
	sess, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		found := false
		kept := sess.Items[:0]
		for _, it := range sess.Items {
			if it.Barcode != barcode {
				kept = append(kept, it)
				continue
			}
			if found {
				continue
			}
			found = true
			if count > 0 {
				it.Count = count
				kept = append(kept, it)
			}
		}
		if !found {
			return false, nil
		}
		sess.Items = kept
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	return view(sess, nil), nil
}

func (s *CheckoutService) RemoveItem(ctx context.Context, sid, barcode string) (CartView, error) {
	return s.SetQuantity(ctx, sid, barcode, 0)
}

func (s *CheckoutService) ClearCart(ctx context.Context, sid string) (CartView, error) {
	sess, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		sess.Items = nil
		sess.OrderID = ""
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	return view(sess, nil), nil
}

// ChangeLocale switches the session language. Coupons are refetched and each
// distinct barcode in the cart is looked up again so names and images follow
// the new locale. Prices and discounts already scanned are kept.
func (s *CheckoutService) ChangeLocale(ctx context.Context, sid, locale string) (CartView, error) {
	locale = i18n.Normalize(locale)
	sess, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		if sess.Locale == locale {
			return false, nil
		}
		sess.Locale = locale
		sess.Coupons = nil
		sess.CouponsLoaded = false

		barcodes := distinctBarcodes(sess.Items)
		products := make([]*models.Product, len(barcodes))
		errs := make([]error, len(barcodes))
		concurrency.ForEach(ctx, s.opts.LookupWorkers, len(barcodes), func(ctx context.Context, i int) {
			products[i], errs[i] = s.backend.LookupBarcode(ctx, barcodes[i], locale)
		})

		byBarcode := make(map[string]*models.Product, len(barcodes))
		for i, b := range barcodes {
			if errs[i] != nil {
				s.backendFailed("lookup_barcode", errs[i])
				s.logger.Warn("relocalize lookup failed", zap.String("barcode", b), zap.Error(errs[i]))
				continue
			}
			if products[i] != nil {
				byBarcode[b] = products[i]
			}
		}
		for i := range sess.Items {
			if p, ok := byBarcode[sess.Items[i].Barcode]; ok {
				sess.Items[i].Name = p.Name
				sess.Items[i].Image = p.ImageURL
			}
		}

		if _, err := s.ensureCoupons(ctx, sess); err != nil {
			s.logger.Warn("coupons not refreshed", zap.String("session_id", sid), zap.Error(err))
		}
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	return view(sess, nil), nil
}

func distinctBarcodes(items []models.ScannedItem) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it.Barcode]; ok {
			continue
		}
		seen[it.Barcode] = struct{}{}
		out = append(out, it.Barcode)
	}
	return out
}

// Checkout submits the cart and requests payment. The order id is kept in
// the session once the backend has accepted the cart, so a retry after a
// failed payment request resubmits the same order instead of opening another.
func (s *CheckoutService) Checkout(ctx context.Context, sid string) (CheckoutResult, error) {
	var (
		res    CheckoutResult
		payErr error
	)
	_, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		if len(sess.Items) == 0 {
			return false, ErrEmptyCart
		}
		if _, err := s.ensureCoupons(ctx, sess); err != nil {
			return false, err
		}

		orderID := sess.OrderID
		if orderID == "" {
			orderID = s.opts.NewOrderID()
		}

		matcher := NewCouponMatcher(sess.Coupons)
		lines := Aggregate(matcher, sess.Items, nil)
		submission := transport.CartSubmission{
			Locale:   sess.Locale,
			IDToken:  sess.IDToken,
			Items:    make([]transport.CartLine, 0, len(lines)),
			CouponID: StorewideCouponID(sess.Coupons),
			OrderID:  orderID,
		}
		for _, l := range lines {
			line := transport.CartLine{Barcode: l.Barcode, Quantity: l.Count}
			if c := matcher.GetCoupon(l.Barcode); c != nil {
				id := c.ID
				line.CouponID = &id
			}
			submission.Items = append(submission.Items, line)
		}

		if _, err := s.backend.SubmitCart(ctx, submission); err != nil {
			s.backendFailed("submit_cart", err)
			s.metrics.Checkouts.WithLabelValues("submit", "error").Inc()
			return false, fmt.Errorf("submit cart: %w", err)
		}
		s.metrics.Checkouts.WithLabelValues("submit", "ok").Inc()
		sess.OrderID = orderID

		paymentURL, err := s.backend.RequestPayment(ctx, transport.PaymentRequest{
			IDToken: sess.IDToken,
			OrderID: orderID,
			Locale:  sess.Locale,
		})
		if err != nil {
			s.backendFailed("request_payment", err)
			s.metrics.Checkouts.WithLabelValues("payment_request", "error").Inc()
			s.logger.Warn("order submitted without payment request",
				zap.String("session_id", sid),
				zap.String("order_id", orderID),
			)
			payErr = fmt.Errorf("request payment: %w", err)
			return true, nil
		}
		s.metrics.Checkouts.WithLabelValues("payment_request", "ok").Inc()

		s.logger.Info("checkout started",
			zap.String("session_id", sid),
			zap.String("order_id", orderID),
			zap.Int("lines", len(lines)),
		)
		res = CheckoutResult{OrderID: orderID, PaymentURL: paymentURL}
		return true, nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if payErr != nil {
		return CheckoutResult{}, payErr
	}
	return res, nil
}

// ConfirmPayment settles the transaction for the session's pending order and
// empties the cart on success.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, sid, transactionID, orderID string) error {
	_, err := s.withSession(ctx, sid, func(sess *session.Session) (bool, error) {
		if sess.OrderID == "" || sess.OrderID != orderID {
			return false, ErrOrderMismatch
		}
		_, err := s.backend.ConfirmPayment(ctx, transport.PaymentConfirmation{
			TransactionID: transactionID,
			OrderID:       orderID,
			Locale:        sess.Locale,
		})
		if err != nil {
			s.backendFailed("confirm_payment", err)
			s.metrics.Checkouts.WithLabelValues("payment_confirm", "error").Inc()
			return false, fmt.Errorf("confirm payment: %w", err)
		}
		s.metrics.Checkouts.WithLabelValues("payment_confirm", "ok").Inc()
		s.logger.Info("payment confirmed",
			zap.String("session_id", sid),
			zap.String("order_id", orderID),
			zap.String("transaction_id", transactionID),
		)
		sess.Items = nil
		sess.OrderID = ""
		return true, nil
	})
	return err
}

// History returns the shopper's past orders, or a single order when orderID
// is set.
func (s *CheckoutService) History(ctx context.Context, sid, orderID string) ([]models.OrderRecord, error) {
	sess, err := s.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	raw, err := s.backend.FetchHistory(ctx, sess.IDToken, orderID, sess.Locale)
	if err != nil {
		s.backendFailed("fetch_history", err)
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return Reconstruct(raw), nil
}

func (s *CheckoutService) backendFailed(op string, err error) {
	s.metrics.Backend.WithLabelValues(op).Inc()
	s.logger.Error("backend call failed", zap.String("operation", op), zap.Error(err))
}
