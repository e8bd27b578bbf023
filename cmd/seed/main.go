package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"divemanager/internal/config"
	"divemanager/internal/database"
	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
	"divemanager/internal/repository"
)

// Seeds a development database with one dive shop, a staff account, a
// couple of members and bookings in various lifecycle states.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db, repository.Models()...); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	tenants := repository.NewTenantRepository(db)
	members := repository.NewMemberRepository(db)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	leads := repository.NewLeadRepository(db)

	shop := domain.Tenant{Name: "Blue Horizon Divers", Slug: "blue-horizon", Currency: "USD"}
	if err := tenants.Create(ctx, &shop); err != nil {
		log.Fatalf("seed tenant: %v", err)
	}
	tenantID := shop.ID
	if err := tenants.UpdateCancellationPolicy(ctx, tenantID, domain.CancellationPolicy{
		CancellationHours: 24,
		Tiers:             domain.DefaultRefundTiers,
	}); err != nil {
		log.Printf("seed policy: %v", err)
	}

	staff := seedMember(ctx, members, tenantID, "staff@diveshop.local", "Sam Staff", domain.RoleStaff)
	diver := seedMember(ctx, members, tenantID, "diver@example.com", "Jo Diver", domain.RoleMember)
	log.Printf("seeded members: staff=%d diver=%d", staff, diver)

	now := time.Now().UTC()
	due := now.Add(48 * time.Hour)

	pending := domain.Booking{
		TenantID:       tenantID,
		BookingNumber:  "BK-SEEDPEND01",
		MemberID:       diver,
		ActivityName:   "Reef Intro Dive",
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentUnpaid,
		TotalAmount:    money.FromFloat(150, "USD"),
		AmountPaid:     money.Zero("USD"),
		BookingDate:    now.Add(7 * 24 * time.Hour),
		PaymentDueDate: &due,
	}
	if err := bookings.Create(ctx, &pending); err != nil {
		log.Printf("seed pending booking: %v", err)
	}

	paidAt := now.Add(-24 * time.Hour)
	confirmed := domain.Booking{
		TenantID:      tenantID,
		BookingNumber: "BK-SEEDCONF01",
		MemberID:      diver,
		ActivityName:  "Wreck Dive",
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPaid,
		TotalAmount:   money.FromFloat(220, "USD"),
		AmountPaid:    money.FromFloat(220, "USD"),
		BookingDate:   now.Add(5 * 24 * time.Hour),
	}
	if err := bookings.Create(ctx, &confirmed); err != nil {
		log.Printf("seed confirmed booking: %v", err)
	} else {
		charge := domain.Payment{
			TenantID:        tenantID,
			BookingID:       confirmed.ID,
			Reference:       "seed-charge-1",
			Amount:          confirmed.TotalAmount,
			Method:          domain.MethodStripe,
			Status:          domain.PaymentRecordCompleted,
			Type:            domain.PaymentTypePayment,
			GatewayChargeID: "pi_seed_0001",
			PaidAt:          &paidAt,
		}
		if err := payments.Create(ctx, &charge); err != nil {
			log.Printf("seed payment: %v", err)
		}
	}

	if err := leads.Create(ctx, &domain.Lead{
		TenantID: tenantID,
		Email:    "curious@example.com",
		Name:     "Curious Visitor",
		Status:   domain.LeadNew,
	}); err != nil {
		log.Printf("seed lead: %v", err)
	}

	log.Println("seed complete")
}

func seedMember(ctx context.Context, repo *repository.MemberRepository, tenantID int64, email, name string, role domain.MemberRole) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	m := domain.Member{
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := repo.Create(ctx, &m); err != nil {
		log.Printf("seed member %s: %v", email, err)
	}
	return m.ID
}
