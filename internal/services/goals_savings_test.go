package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cofre/internal/cache"
	"cofre/internal/core"
	"cofre/internal/middleware/auth"

	"golang.org/x/crypto/bcrypt"
)

func TestGoalService_ContributeOvershoot(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	seedOwner(t, repo, "bob")
	goals := NewGoalService(repo)
	ctx := context.Background()

	g, err := goals.Create(ctx, "ana", GoalInput{Name: "Trip", Target: core.Money{Cents: 10000}, Current: core.Money{Cents: 9000}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if g.Completed || g.StartDate.IsEmpty() {
		t.Fatalf("new goal = %+v", g)
	}

	got, err := goals.Contribute(ctx, "ana", g.ID, core.Money{Cents: 2000})
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if got.Current.Cents != 11000 || !got.Completed {
		t.Errorf("after contribution = %+v, want 11000 completed", got)
	}

	tests := []struct {
		name   string
		owner  string
		id     string
		amount int64
		want   func(error) bool
	}{
		{"zero", "ana", g.ID, 0, core.IsValidation},
		{"negative", "ana", g.ID, -5, core.IsValidation},
		{"foreign owner", "bob", g.ID, 100, func(err error) bool { return errors.Is(err, core.ErrNotFound) }},
		{"unknown goal", "ana", "nope", 100, func(err error) bool { return errors.Is(err, core.ErrNotFound) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := goals.Contribute(ctx, tt.owner, tt.id, core.Money{Cents: tt.amount})
			if !tt.want(err) {
				t.Errorf("Contribute() error = %v", err)
			}
		})
	}

	after, _ := goals.Get(ctx, "ana", g.ID)
	if after.Current.Cents != 11000 {
		t.Errorf("rejected contributions changed progress: %d", after.Current.Cents)
	}
}

func TestGoalService_References(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	seedOwner(t, repo, "bob")
	goals := NewGoalService(repo)
	boxes := NewSavingsBoxService(repo)
	ctx := context.Background()

	foreignBox, _ := boxes.Create(ctx, "bob", BoxInput{Name: "Bob's"})
	if _, err := goals.Create(ctx, "ana", GoalInput{Name: "G", Target: core.Money{Cents: 1}, SavingsBoxID: foreignBox.ID}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign box error = %v, want ErrNotFound", err)
	}

	box, _ := boxes.Create(ctx, "ana", BoxInput{Name: "Mine"})
	if err := boxes.Delete(ctx, "ana", box.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := goals.Create(ctx, "ana", GoalInput{Name: "G", Target: core.Money{Cents: 1}, SavingsBoxID: box.ID}); !errors.Is(err, core.ErrBoxInactive) {
		t.Errorf("inactive box error = %v, want ErrBoxInactive", err)
	}

	start := core.NewDate(2025, 6, 1)
	before := core.NewDate(2025, 5, 1)
	if _, err := goals.Create(ctx, "ana", GoalInput{Name: "G", Target: core.Money{Cents: 1}, StartDate: start, TargetDate: before}); !errors.Is(err, core.ErrTargetBeforeStart) {
		t.Errorf("target before start error = %v", err)
	}

	g, err := goals.Create(ctx, "ana", GoalInput{Name: "G", Target: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	current := core.Money{Cents: 150}
	updated, err := goals.Update(ctx, "ana", g.ID, GoalPatch{Current: &current})
	if err != nil || !updated.Completed {
		t.Errorf("Update() = %+v, %v", updated, err)
	}
	if err := goals.Delete(ctx, "ana", g.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestSavingsBoxService_DeleteLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	boxes := NewSavingsBoxService(repo)
	ctx := context.Background()

	b, err := boxes.Create(ctx, "ana", BoxInput{Name: "Emergency", Current: core.Money{Cents: 500}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Color != core.DefaultBoxColor || b.Icon != core.DefaultBoxIcon || !b.Active() {
		t.Errorf("defaults not applied: %+v", b)
	}

	if err := boxes.Delete(ctx, "ana", b.ID); !errors.Is(err, core.ErrBoxHasBalance) {
		t.Fatalf("Delete() with balance error = %v", err)
	}
	if _, err := boxes.Withdraw(ctx, "ana", b.ID, core.Money{Cents: 501}); !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("overdraw error = %v", err)
	}
	if _, err := boxes.Withdraw(ctx, "ana", b.ID, core.Money{Cents: 500}); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if err := boxes.Delete(ctx, "ana", b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, _ := boxes.Get(ctx, "ana", b.ID)
	if got.Active() {
		t.Error("box should be inactive after delete")
	}
	if _, err := boxes.Deposit(ctx, "ana", b.ID, core.Money{Cents: 1}); !errors.Is(err, core.ErrBoxInactive) {
		t.Errorf("deposit on inactive error = %v", err)
	}
	name := "Renamed"
	if _, err := boxes.Update(ctx, "ana", b.ID, BoxPatch{Name: &name}); !errors.Is(err, core.ErrBoxInactive) {
		t.Errorf("update on inactive error = %v", err)
	}
	if err := boxes.Delete(ctx, "ana", b.ID); !errors.Is(err, core.ErrBoxInactive) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestSavingsBoxService_DeleteBlockedByGoal(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	boxes := NewSavingsBoxService(repo)
	goals := NewGoalService(repo)
	ctx := context.Background()

	b, _ := boxes.Create(ctx, "ana", BoxInput{Name: "Trip"})
	if _, err := goals.Create(ctx, "ana", GoalInput{Name: "Trip", Target: core.Money{Cents: 100}, SavingsBoxID: b.ID}); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := boxes.Delete(ctx, "ana", b.ID); !errors.Is(err, core.ErrBoxLinkedToGoal) {
		t.Errorf("Delete() error = %v, want ErrBoxLinkedToGoal", err)
	}
}

func TestSavingsBoxService_TransferAndStats(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	seedOwner(t, repo, "bob")
	boxes := NewSavingsBoxService(repo)
	ctx := context.Background()

	a, _ := boxes.Create(ctx, "ana", BoxInput{Name: "A", Current: core.Money{Cents: 1000}, Target: cents(1000)})
	b, _ := boxes.Create(ctx, "ana", BoxInput{Name: "B", Target: cents(400)})
	foreign, _ := boxes.Create(ctx, "bob", BoxInput{Name: "C"})

	tests := []struct {
		name     string
		from, to string
		amount   int64
		want     error
	}{
		{"same box", a.ID, a.ID, 10, core.ErrSameBox},
		{"non-positive", a.ID, b.ID, 0, core.ErrInvalidAmount},
		{"insufficient", a.ID, b.ID, 1001, core.ErrInsufficientFunds},
		{"foreign target", a.ID, foreign.ID, 10, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := boxes.Transfer(ctx, "ana", tt.from, tt.to, core.Money{Cents: tt.amount})
			if !errors.Is(err, tt.want) {
				t.Errorf("Transfer() error = %v, want %v", err, tt.want)
			}
		})
	}

	from, to, err := boxes.Transfer(ctx, "ana", a.ID, b.ID, core.Money{Cents: 600})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if from.Current.Cents != 400 || to.Current.Cents != 600 {
		t.Errorf("from=%d to=%d", from.Current.Cents, to.Current.Cents)
	}

	// A: 400/1000 = 40%, B: 600/400 capped at 100%
	stats, err := boxes.Stats(ctx, "ana")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ActiveBoxes != 2 || stats.TotalAmount.Cents != 1000 || stats.Completed != 1 || stats.AverageProgress != 70 {
		t.Errorf("stats = %+v", stats)
	}
}

func cents(n int64) *core.Money {
	return &core.Money{Cents: n}
}

func TestSavingsBoxService_TargetMustBePositiveWhenPresent(t *testing.T) {
	repo := newTestRepo(t)
	seedOwner(t, repo, "ana")
	boxes := NewSavingsBoxService(repo)
	ctx := context.Background()

	for _, target := range []int64{0, -100} {
		if _, err := boxes.Create(ctx, "ana", BoxInput{Name: "Box", Target: cents(target)}); !errors.Is(err, core.ErrInvalidTarget) {
			t.Errorf("Create(target=%d) error = %v, want ErrInvalidTarget", target, err)
		}
	}

	b, err := boxes.Create(ctx, "ana", BoxInput{Name: "Box", Target: cents(5000)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := boxes.Update(ctx, "ana", b.ID, BoxPatch{Target: cents(0)}); !errors.Is(err, core.ErrInvalidTarget) {
		t.Errorf("Update(target=0) error = %v, want ErrInvalidTarget", err)
	}
	got, _ := boxes.Get(ctx, "ana", b.ID)
	if got.Target.Cents != 5000 {
		t.Errorf("target after rejected update = %d, want 5000", got.Target.Cents)
	}

	cleared, err := boxes.Update(ctx, "ana", b.ID, BoxPatch{ClearTarget: true})
	if err != nil {
		t.Fatalf("Update(clear) error = %v", err)
	}
	if cleared.HasTarget() {
		t.Errorf("target = %d, want none", cleared.Target.Cents)
	}

	untargeted, err := boxes.Create(ctx, "ana", BoxInput{Name: "Loose"})
	if err != nil || untargeted.HasTarget() {
		t.Errorf("Create() without target = %+v, %v", untargeted, err)
	}
}

func TestAuthService(t *testing.T) {
	repo := newTestRepo(t)
	users := cache.NewLRUCache[core.User](10, time.Minute)
	svc := NewAuthService(repo, auth.NewTokenManager("secret", time.Hour), users)
	svc.cost = bcrypt.MinCost
	ctx := context.Background()

	sess, err := svc.Register(ctx, " Ana@Example.com ", "correct horse", "Ana")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if sess.Token == "" || sess.User.Email != "ana@example.com" || sess.User.PasswordHash == "correct horse" {
		t.Errorf("session = %+v", sess)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"ok", "ana@example.com", "correct horse", nil},
		{"wrong password", "ana@example.com", "wrong horse", core.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "correct horse", core.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Login() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := svc.Register(ctx, "ana@example.com", "another one", "Ana"); !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "x@example.com", "short", "X"); !errors.Is(err, core.ErrWeakPassword) {
		t.Errorf("weak password error = %v", err)
	}

	id := sess.User.ID
	svc.CurrentUser(ctx, id)
	svc.CurrentUser(ctx, id)
	if s := users.GetStats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("cache stats = %+v", s)
	}
	u, err := svc.UpdateName(ctx, id, "Ana Maria")
	if err != nil || u.Name != "Ana Maria" {
		t.Fatalf("UpdateName() = %+v, %v", u, err)
	}
	if cached, _ := svc.CurrentUser(ctx, id); cached.Name != "Ana Maria" {
		t.Errorf("cache not invalidated, got %q", cached.Name)
	}
}

func TestDashboardService_Month(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	acc := f.account(t, "ana", "A")

	for _, in := range []TransactionInput{
		{AccountID: acc.ID, Amount: core.Money{Cents: 5000}, Type: core.Income, Date: core.NewDate(2025, 3, 1)},
		{AccountID: acc.ID, Amount: core.Money{Cents: 1200}, Type: core.Expense, Date: core.NewDate(2025, 3, 31)},
		{AccountID: acc.ID, Amount: core.Money{Cents: 999}, Type: core.Expense, Date: core.NewDate(2025, 4, 1)},
	} {
		if _, err := f.txs.Create(ctx, "ana", in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	d, err := NewDashboardService(f.repo).Get(ctx, "ana", 2025, time.March)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.MonthIncome.Cents != 5000 || d.MonthExpense.Cents != 1200 {
		t.Errorf("month = %d/%d", d.MonthIncome.Cents, d.MonthExpense.Cents)
	}
	if len(d.ExpenseByCategory) != 1 || d.ExpenseByCategory[0].Amount.Cents != 1200 {
		t.Errorf("by category = %+v", d.ExpenseByCategory)
	}
	if len(d.Accounts) != 1 || d.TotalBalance.Cents != 5000-1200-999 {
		t.Errorf("accounts = %+v total = %d", d.Accounts, d.TotalBalance.Cents)
	}
	if _, err := NewDashboardService(f.repo).Get(ctx, "ana", 2025, 13); !core.IsValidation(err) {
		t.Errorf("month 13 error = %v", err)
	}
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	acc := f.account(t, "ana", "A")
	now := time.Now().UTC()

	templates := []TransactionInput{
		{AccountID: acc.ID, Amount: core.Money{Cents: 100}, Type: core.Expense, Date: core.DateOf(now.AddDate(0, 0, -3)), IsRecurring: true, Recurrence: core.Daily, Description: "coffee"},
		{AccountID: acc.ID, Amount: core.Money{Cents: 700}, Type: core.Expense, Date: core.DateOf(now.AddDate(0, 0, -2)), IsRecurring: true, Recurrence: core.Weekly},
		{AccountID: acc.ID, Amount: core.Money{Cents: 900}, Type: core.Income, Date: core.DateOf(now.AddDate(0, 0, 5)), IsRecurring: true, Recurrence: core.Daily},
	}
	for _, in := range templates {
		if _, err := f.txs.Create(ctx, "ana", in); err != nil {
			t.Fatalf("create template: %v", err)
		}
	}

	p := NewRecurringProcessor(f.repo, f.txs)
	n, err := p.ProcessDue(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("ProcessDue() = %d, %v, want 1", n, err)
	}
	n, err = p.ProcessDue(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("second ProcessDue() = %d, %v, want 0", n, err)
	}

	txs, _ := f.txs.List(ctx, "ana", core.TransactionFilter{From: core.DateOf(now), To: core.DateOf(now)})
	if len(txs) != 1 || txs[0].IsRecurring || txs[0].Description != "coffee" {
		t.Fatalf("occurrences = %+v", txs)
	}
	// two settled templates plus the new occurrence
	if got := f.balance(t, "ana", acc.ID); got != -900 {
		t.Errorf("balance = %d, want -900", got)
	}

	if _, err := (&RecurringProcessor{}).ProcessDue(ctx, now); err == nil {
		t.Error("uninitialized processor should fail")
	}
}
