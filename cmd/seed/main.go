// Seeder command for a demo school with one user per role and two
// consecutive scenarios, the later one fully populated.
//
// SAFETY: This command ONLY runs when:
//   - APP_ENV=development
//   - --confirm flag is provided
//
// Usage:
//
//	APP_ENV=development go run ./cmd/seed --year 2025-2026 --confirm
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fizibilite/internal/config"
	"fizibilite/internal/db"
	"fizibilite/internal/finance"
	"fizibilite/internal/kademe"
	"fizibilite/internal/logger"
	"fizibilite/internal/models"
	"fizibilite/internal/util"
	"fizibilite/internal/workflow"
)

func main() {
	year := flag.String("year", "2025-2026", "Academic year of the populated scenario")
	password := flag.String("password", "demo1234", "Password of the seeded users")
	confirm := flag.Bool("confirm", false, "Confirm seeding (required)")
	flag.Parse()

	if os.Getenv("APP_ENV") != "development" {
		fmt.Fprintln(os.Stderr, "ERROR: Seeder can only run in development environment. Set APP_ENV=development and try again.")
		os.Exit(1)
	}
	if !*confirm {
		fmt.Fprintln(os.Stderr, "ERROR: --confirm flag is required to run seeder.")
		os.Exit(1)
	}
	prevYear, ok := util.ComputePrevAcademicYear(*year)
	if !ok {
		fmt.Fprintf(os.Stderr, "ERROR: invalid academic year %q\n", *year)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithModule("seed")

	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	// Do NOT run migrations - assume DB is already set up

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.WithError(err).Fatal("failed to begin transaction")
	}
	defer tx.Rollback()

	var creator *models.User
	for _, role := range []string{models.RoleAdmin, models.RoleManager, models.RolePrincipal} {
		u, err := ensureUser(ctx, tx, role+"@demo.fizibilite.test", *password, role)
		if err != nil {
			log.WithError(err).WithField("role", role).Fatal("failed to seed user")
		}
		if role == models.RolePrincipal {
			creator = u
		}
	}

	country := "Mısır"
	school, err := models.CreateSchool(ctx, tx, "Kahire Demo Okulu", &country)
	if err != nil {
		log.WithError(err).Fatal("failed to create school")
	}

	fx := 48.5
	localCode := "EGP"
	for i, y := range []string{prevYear, *year} {
		s, err := models.CreateScenario(ctx, tx, models.NewScenario{
			SchoolID:          school.ID,
			AcademicYear:      y,
			InputCurrency:     finance.CurrencyUSD,
			FXUSDToLocal:      &fx,
			LocalCurrencyCode: &localCode,
			ProgramType:       finance.ProgramLocal,
			CreatedByUserID:   &creator.ID,
		})
		if err != nil {
			log.WithError(err).WithField("academic_year", y).Fatal("failed to create scenario")
		}

		in := demoInputs(school.Name, 1+0.1*float64(i))
		raw, err := json.Marshal(in)
		if err != nil {
			log.WithError(err).Fatal("failed to encode inputs")
		}
		if _, err := models.SaveScenarioInputs(ctx, tx, s.ID, raw); err != nil {
			log.WithError(err).Fatal("failed to save inputs")
		}
		results, err := json.Marshal(finance.ComputeResults(in, finance.CurrencyUSD))
		if err != nil {
			log.WithError(err).Fatal("failed to encode results")
		}
		if err := models.SaveScenarioResults(ctx, tx, s.ID, results); err != nil {
			log.WithError(err).Fatal("failed to save results")
		}

		// The earlier year goes through the full review; the later one is
		// left in review with two items submitted.
		work := workflow.RequiredWorkIDs[:2]
		action := workflow.ActionSubmit
		if y == prevYear {
			work, action = workflow.RequiredWorkIDs, workflow.ActionApprove
		}
		for _, workID := range work {
			if _, _, err := workflow.ApplyWorkItemAction(ctx, tx, s.ID, workID, action, ""); err != nil {
				log.WithError(err).WithField("work_id", workID).Fatal("failed to seed work item")
			}
		}

		log.WithFields(logrus.Fields{"scenario_id": s.ID, "academic_year": y}).Info("seeded scenario")
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Fatal("failed to commit")
	}
	log.WithFields(logrus.Fields{
		"school_id": school.ID,
		"users":     strings.Join([]string{"admin", "manager", "principal"}, ","),
	}).Info("seed complete")
}

func ensureUser(ctx context.Context, q models.Querier, email, password, role string) (*models.User, error) {
	u, err := models.GetUserByEmail(ctx, q, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return models.CreateUser(ctx, q, email, string(hashed), role)
}

// demoInputs builds a complete inputs document; growth scales the student counts.
func demoInputs(schoolName string, growth float64) *finance.Inputs {
	n := finance.N
	grades := func(scale float64) []finance.GradeRow {
		var rows []finance.GradeRow
		for i, g := range kademe.Grades {
			students := float64(40 - i)
			rows = append(rows, finance.GradeRow{Grade: g, Branches: n(2), Students: n(float64(int(students * scale * growth)))})
		}
		return rows
	}
	amounts := func(y1 float64) finance.YearValues {
		return finance.YearValues{Y1: n(y1), Y2: n(y1 * 1.2), Y3: n(y1 * 1.4)}
	}

	return &finance.Inputs{
		BasicInfo: finance.BasicInfo{
			SchoolName:  schoolName,
			Country:     "Mısır",
			City:        "Kahire",
			Region:      "Orta Doğu",
			FoundedYear: n(2009),
			Inflation:   finance.YearValues{Y1: n(0.25), Y2: n(0.2), Y3: n(0.18)},
			FeeIncrease: finance.YearValues{Y2: n(0.15), Y3: n(0.12)},
			CurrentHR:   map[string]finance.Num{"ilkokul": n(14), "lise": n(11)},
			Competitors: []finance.Competitor{
				{Name: "British School", Fees: map[string]finance.Num{kademe.Ilkokul: n(9000), kademe.Lise: n(12000)}},
			},
			Performance: finance.Performance{
				PlannedStudents: n(420), ActualStudents: n(401),
				PlannedRevenue: n(2_100_000), ActualRevenue: n(1_980_000),
				PlannedExpenses: n(1_700_000), ActualExpenses: n(1_760_000),
				RealizedFX: n(47.2),
			},
		},
		Capacity: finance.CapacityInputs{ByKademe: map[string]finance.PeriodValues{
			kademe.OkulOncesi: {Cur: n(60), Y1: n(60), Y2: n(80), Y3: n(80)},
			kademe.Ilkokul:    {Cur: n(200), Y1: n(220), Y2: n(240), Y3: n(240)},
			kademe.Ortaokul:   {Cur: n(160), Y1: n(160), Y2: n(180), Y3: n(200)},
			kademe.Lise:       {Cur: n(120), Y1: n(140), Y2: n(140), Y3: n(160)},
		}},
		Grades: grades(0.9),
		GradesYears: map[string][]finance.GradeRow{
			"y1": grades(1),
			"y2": grades(1.08),
			"y3": grades(1.15),
		},
		Norm: finance.NormInputs{
			TeacherWeeklyMaxHours: n(24),
			CurriculumWeeklyHours: map[string]map[string]finance.Num{
				"Sınıf Öğretmeni||Türkçe":        {"1": n(10), "2": n(10), "3": n(8), "4": n(8)},
				"Matematik Öğretmeni||Matematik": {"5": n(5), "6": n(5), "7": n(5), "8": n(5), "9": n(6)},
				"İngilizce Öğretmeni||İngilizce": {"KG": n(4), "1": n(4), "5": n(6), "9": n(6), "12": n(4)},
			},
		},
		HR: finance.HRInputs{
			UnitCostRatio: n(0.05),
			UnitCosts: map[string]map[string]finance.Num{
				"merkez":  {"turk_mudur": n(42000), "turk_mdyard": n(36000)},
				"ilkokul": {"turk_egitimci": n(30000), "yerel_egitimci": n(9000)},
				"lise":    {"turk_egitimci": n(32000), "yerel_egitimci": n(10000), "int_egitimci": n(24000)},
				"idari":   {"yerel_yonetici": n(12000)},
				"destek":  {"yerel_destek": n(5000)},
			},
			Headcounts: map[string]map[string]map[string]finance.Num{
				"y1": {"merkez": {"turk_mudur": n(1), "turk_mdyard": n(1)}, "ilkokul": {"turk_egitimci": n(4), "yerel_egitimci": n(10)}, "lise": {"turk_egitimci": n(3), "yerel_egitimci": n(8), "int_egitimci": n(2)}, "idari": {"yerel_yonetici": n(3)}, "destek": {"yerel_destek": n(6)}},
				"y2": {"merkez": {"turk_mudur": n(1), "turk_mdyard": n(1)}, "ilkokul": {"turk_egitimci": n(4), "yerel_egitimci": n(11)}, "lise": {"turk_egitimci": n(3), "yerel_egitimci": n(9), "int_egitimci": n(2)}, "idari": {"yerel_yonetici": n(3)}, "destek": {"yerel_destek": n(6)}},
				"y3": {"merkez": {"turk_mudur": n(1), "turk_mdyard": n(2)}, "ilkokul": {"turk_egitimci": n(5), "yerel_egitimci": n(12)}, "lise": {"turk_egitimci": n(4), "yerel_egitimci": n(9), "int_egitimci": n(3)}, "idari": {"yerel_yonetici": n(4)}, "destek": {"yerel_destek": n(7)}},
			},
		},
		Revenues: finance.RevenueInputs{
			UnitFee: map[string]finance.Num{kademe.OkulOncesi: n(4500), kademe.Ilkokul: n(5500), kademe.Ortaokul: n(6200), kademe.Lise: n(7000)},
			Activity: []finance.AmountLine{
				{Key: "yemek", Label: "Yemek", Amounts: amounts(120000)},
				{Key: "servis", Label: "Servis", Amounts: amounts(95000)},
			},
			NonActivity: []finance.AmountLine{{Key: "kira_geliri", Label: "Kira Geliri", Amounts: amounts(18000)}},
		},
		Expenses: finance.ExpenseInputs{Operating: []finance.AmountLine{
			{Key: "kira", Label: "Bina Kirası", Amounts: amounts(240000)},
			{Key: "enerji", Label: "Enerji", Amounts: amounts(60000)},
			{Key: "bakim", Label: "Bakım Onarım", Amounts: amounts(35000)},
		}},
		Discounts: []finance.DiscountInput{
			{Name: "Başarı Bursu", Kind: finance.DiscountScholarship, Rate: n(0.5), Students: finance.YearValues{Y1: n(12), Y2: n(14), Y3: n(15)}},
			{Name: "Kardeş İndirimi", Kind: finance.DiscountReduction, Rate: n(0.1), Students: finance.YearValues{Y1: n(40), Y2: n(42), Y3: n(45)}},
		},
	}
}
