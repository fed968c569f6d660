package services

import (
	"context"
	"testing"
	"time"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/repo"
)

func seedProcessingAssessment(t *testing.T, svc *AssessmentService) *domain.Assessment {
	t.Helper()
	res, err := svc.Intake(context.Background(), nil, domain.Answers{"lot_size": "large"}, time.Now())
	if err != nil {
		t.Fatalf("seed intake: %v", err)
	}
	return res.Assessment
}

func completedEvent(assessmentID, sessionID string) PaymentEvent {
	return PaymentEvent{
		EventType:    "checkout.session.completed",
		SessionID:    sessionID,
		AssessmentID: assessmentID,
		Amount:       49900,
		Currency:     "usd",
	}
}

func TestReconcile_FirstDeliveryUpgradesOnce(t *testing.T) {
	db := newServiceDB(t)
	aSvc := &AssessmentService{DB: db}
	pSvc := &PaymentService{DB: db}
	a := seedProcessingAssessment(t, aSvc)

	out, err := pSvc.Reconcile(context.Background(), completedEvent(a.ID, "cs_1"))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out != OutcomeOK {
		t.Fatalf("outcome = %q, want ok", out)
	}

	got, _ := repo.GetAssessment(context.Background(), db, a.ID)
	if got.Tier != domain.Tier2 {
		t.Fatalf("tier = %v, want default tier2", got.Tier)
	}
	if got.PaidAt == nil {
		t.Fatalf("paid_at not set")
	}
	if n, _ := repo.CountPayments(context.Background(), db, a.ID); n != 1 {
		t.Fatalf("ledger entries = %d, want 1", n)
	}
}

func TestReconcile_DuplicateDeliveryIsIgnored(t *testing.T) {
	db := newServiceDB(t)
	aSvc := &AssessmentService{DB: db}
	pSvc := &PaymentService{DB: db}
	a := seedProcessingAssessment(t, aSvc)

	evt := completedEvent(a.ID, "cs_dup")
	for i, want := range []Outcome{OutcomeOK, OutcomeIgnored, OutcomeIgnored} {
		out, err := pSvc.Reconcile(context.Background(), evt)
		if err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
		if out != want {
			t.Fatalf("delivery %d outcome = %q, want %q", i+1, out, want)
		}
	}

	// Exactly one ledger entry and one effective tier change.
	if n, _ := repo.CountPayments(context.Background(), db, a.ID); n != 1 {
		t.Fatalf("ledger entries = %d, want 1", n)
	}
	got, _ := repo.GetAssessment(context.Background(), db, a.ID)
	if got.Tier != domain.Tier2 {
		t.Fatalf("tier = %v, want tier2", got.Tier)
	}
}

func TestReconcile_ReplayAfterCrashStillLandsUpgrade(t *testing.T) {
	db := newServiceDB(t)
	aSvc := &AssessmentService{DB: db}
	pSvc := &PaymentService{DB: db}
	a := seedProcessingAssessment(t, aSvc)

	// Simulate a crash after the ledger append but before the upgrade.
	if _, err := repo.CreatePayment(context.Background(), db, "cs_crash", a.ID, 49900, "usd"); err != nil {
		t.Fatalf("pre-seed payment: %v", err)
	}

	out, err := pSvc.Reconcile(context.Background(), completedEvent(a.ID, "cs_crash"))
	if err != nil {
		t.Fatalf("Reconcile replay: %v", err)
	}
	if out != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", out)
	}
	got, _ := repo.GetAssessment(context.Background(), db, a.ID)
	if got.Tier != domain.Tier2 {
		t.Fatalf("replay did not land the upgrade: tier = %v", got.Tier)
	}
}

func TestReconcile_UnknownAssessmentRejected(t *testing.T) {
	db := newServiceDB(t)
	pSvc := &PaymentService{DB: db}

	_, err := pSvc.Reconcile(context.Background(), completedEvent("no-such-id", "cs_x"))
	if err != ErrAssessmentNotFound {
		t.Fatalf("err = %v, want ErrAssessmentNotFound", err)
	}
	// Fail safe: nothing was appended to the ledger.
	if n, _ := repo.CountPayments(context.Background(), db, "no-such-id"); n != 0 {
		t.Fatalf("ledger entries = %d, want 0", n)
	}
}

func TestReconcile_ProductMapSelectsTier(t *testing.T) {
	db := newServiceDB(t)
	aSvc := &AssessmentService{DB: db}
	pSvc := &PaymentService{
		DB:            db,
		TierByProduct: map[string]domain.Tier{"price_premium": domain.Tier3},
	}
	a := seedProcessingAssessment(t, aSvc)

	evt := completedEvent(a.ID, "cs_premium")
	evt.ProductID = "price_premium"
	if _, err := pSvc.Reconcile(context.Background(), evt); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	got, _ := repo.GetAssessment(context.Background(), db, a.ID)
	if got.Tier != domain.Tier3 {
		t.Fatalf("tier = %v, want mapped tier3", got.Tier)
	}
}

func TestReconcile_IrrelevantEventTypeIgnoredWithoutState(t *testing.T) {
	db := newServiceDB(t)
	aSvc := &AssessmentService{DB: db}
	pSvc := &PaymentService{DB: db}
	a := seedProcessingAssessment(t, aSvc)

	evt := completedEvent(a.ID, "cs_other")
	evt.EventType = "invoice.paid"
	out, err := pSvc.Reconcile(context.Background(), evt)
	if err != nil || out != OutcomeIgnored {
		t.Fatalf("got (%q, %v), want (ignored, nil)", out, err)
	}
	if n, _ := repo.CountPayments(context.Background(), db, a.ID); n != 0 {
		t.Fatalf("ledger entries = %d, want 0", n)
	}
	got, _ := repo.GetAssessment(context.Background(), db, a.ID)
	if got.Tier != domain.Tier1 {
		t.Fatalf("tier changed on irrelevant event: %v", got.Tier)
	}
}

func TestReconcile_MissingIdentifiers(t *testing.T) {
	db := newServiceDB(t)
	pSvc := &PaymentService{DB: db}

	for _, evt := range []PaymentEvent{
		{EventType: "checkout.session.completed", SessionID: "", AssessmentID: "a"},
		{EventType: "checkout.session.completed", SessionID: "s", AssessmentID: "  "},
	} {
		if _, err := pSvc.Reconcile(context.Background(), evt); err != ErrInvalidInput {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	}
}
