package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedIndustries = []string{
	"Manufacturing", "Retail", "Logistics", "Healthcare",
	"Construction", "Professional Services",
}

var seedServices = [][]string{
	{"CRM Implementation", "Sales", "Inventory"},
	{"Accounting", "Invoicing", "Payroll"},
	{"Manufacturing", "MRP", "Quality"},
	{"eCommerce", "Website", "POS"},
	{"CRM", "Helpdesk", "Marketing Automation"},
	{"Accounting", "Inventory", "Purchase"},
	{"HR", "Payroll", "Recruitment"},
	{"Project", "Timesheets", "Field Service"},
}

// SeedTestData resets the database and populates it with demo clients,
// partners, briefs and matches.
//
// Behavior:
//  1. Clears matches, briefs, partners and users.
//  2. Creates 12 client users and 8 partner users (hashed passwords) with
//     one partner profile each.
//  3. Creates a brief per active client and a spread of matches in the
//     suggested/accepted/rejected states, including guaranteed mutual
//     matches.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"matches", "briefs", "partners", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"matches", "briefs", "partners", "users"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range []string{"matches", "briefs", "partners", "users"} {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Users (12 clients, 8 partners) ---
	var clients []User
	for i := 1; i <= 20; i++ {
		role := RoleClient
		if i > 12 {
			role = RolePartner
		}
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Role:         role,
			Industry:     seedIndustries[r.Intn(len(seedIndustries))],
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		if role == RoleClient {
			clients = append(clients, user)
		} else {
			partner := Partner{
				UserID:         user.ID,
				Company:        fmt.Sprintf("Partner Co %d", i-12),
				Industry:       seedIndustries[r.Intn(len(seedIndustries))],
				Services:       seedServices[(i-13)%len(seedServices)],
				RateMin:        uint(60 + r.Intn(60)),
				Capacity:       []string{CapacityAvailable, CapacityLimited, CapacityFull}[r.Intn(3)],
				Rating:         3 + r.Float64()*2,
				ReviewCount:    r.Intn(80),
				Verified:       r.Intn(100) < 70,
				Certifications: []string{"Odoo Certified v17"},
			}
			partner.RateMax = partner.RateMin + uint(20+r.Intn(60))
			if err := db.Create(&partner).Error; err != nil {
				return fmt.Errorf("failed to seed partner: %w", err)
			}
		}
	}
	log.Println("Seeded 12 clients and 8 partners.")

	var partners []Partner
	if err := db.Order("id").Find(&partners).Error; err != nil {
		return err
	}

	// --- Briefs and matches ---
	moduleSets := [][]string{
		{"CRM", "Sales"},
		{"Accounting", "Invoicing"},
		{"Inventory", "Purchase"},
		{"Manufacturing", "MRP"},
		{"eCommerce", "POS"},
	}

	counter := 0
	for _, client := range clients {
		brief := Brief{
			ClientID:      client.ID,
			Title:         fmt.Sprintf("Odoo rollout for %s", client.Username),
			Description:   "Implementation support wanted for an Odoo migration.",
			Modules:       moduleSets[r.Intn(len(moduleSets))],
			BudgetMin:     uint(70 + r.Intn(40)),
			TimelineWeeks: 4 + r.Intn(20),
			Priority:      []string{"low", "medium", "high"}[r.Intn(3)],
			Status:        BriefMatching,
		}
		brief.BudgetMax = brief.BudgetMin + uint(30+r.Intn(40))
		if err := db.Create(&brief).Error; err != nil {
			return fmt.Errorf("failed to seed brief: %w", err)
		}

		// each client gets decisions on ~4 partners
		for j := 0; j < 4; j++ {
			partner := partners[r.Intn(len(partners))]

			clientDecision := DecisionAccepted
			partnerDecision := DecisionPending
			// ~30% of requests already answered, every 3rd answered one mutual
			if r.Intn(100) < 30 {
				partnerDecision = DecisionDeclined
			}
			if counter%3 == 0 {
				partnerDecision = DecisionAccepted
			}

			status := MatchSuggested
			switch {
			case partnerDecision == DecisionAccepted:
				status = MatchAccepted
			case partnerDecision == DecisionDeclined:
				status = MatchRejected
			}

			briefID := brief.ID
			m := Match{
				ClientID:  client.ID,
				PartnerID: partner.ID,
				BriefID:   &briefID,
				Score:     50 + r.Intn(50),
				Breakdown: map[string]int{
					"moduleFit":     50 + r.Intn(50),
					"industryMatch": 40 + r.Intn(60),
					"budgetFit":     50 + r.Intn(50),
					"capacity":      []int{30, 60, 100}[r.Intn(3)],
					"rating":        60 + r.Intn(40),
				},
				Reasons:         []string{"Good overall match"},
				ClientDecision:  clientDecision,
				PartnerDecision: partnerDecision,
				Status:          status,
			}
			if partnerDecision.Responded() {
				now := time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour)
				m.RespondedAt = &now
			}

			// one row per (client, partner) pair
			var existing Match
			err := db.Where("client_id = ? AND partner_id = ?", client.ID, partner.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if err := db.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to seed match: %w", err)
			}
			counter++
		}
	}

	log.Printf("Seeded briefs and %d matches.", counter)
	return nil
}
