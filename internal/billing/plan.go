package billing

// Unlimited marks a quota dimension without a cap. Comparisons against it
// must be skipped, never evaluated numerically.
const Unlimited int64 = -1

// Quota is the set of daily limits a plan grants.
type Quota struct {
	DailyMessages int64
	DailyUploads  int64
	UploadAllowed bool
}

// QuotaFor returns the quota for a plan. Unknown plans get the free-tier
// quota, so a corrupt or future plan value degrades limits rather than
// granting them.
func QuotaFor(plan Plan) Quota {
	switch plan {
	case PlanBasic:
		return Quota{DailyMessages: 120, DailyUploads: 10, UploadAllowed: true}
	case PlanPro:
		return Quota{DailyMessages: Unlimited, DailyUploads: Unlimited, UploadAllowed: true}
	default:
		return Quota{DailyMessages: 8, DailyUploads: 0, UploadAllowed: false}
	}
}

// PlanSpec describes a purchasable plan: its display title and recurring
// price.
type PlanSpec struct {
	Key   Plan
	Title string
	Price Money
}

// Catalog is the set of plans available for subscription. The free tier is
// not in the catalog; it is the absence of a subscription.
type Catalog map[Plan]PlanSpec

// DefaultCatalog returns the plans sold in production.
func DefaultCatalog() Catalog {
	return Catalog{
		PlanBasic: {
			Key:   PlanBasic,
			Title: "Plano Básico",
			Price: Money{Amount: 1290, Currency: "BRL"},
		},
		PlanPro: {
			Key:   PlanPro,
			Title: "Plano Pro",
			Price: Money{Amount: 2490, Currency: "BRL"},
		},
	}
}

// ResolveEntitlement derives the effective tier from a stored record.
//
// A nil record (the user never subscribed) resolves to the free plan with
// status "none". A record whose status is anything other than active also
// resolves to the free plan, but the real status is kept so callers can
// tell a pending checkout from a cancelled subscription. Only an active
// record grants its stored plan.
func ResolveEntitlement(rec *Record) Entitlement {
	if rec == nil {
		return Entitlement{Plan: PlanFree, Status: StatusNone}
	}
	status := NormalizeStatus(string(rec.Status))
	if status != StatusActive {
		return Entitlement{Plan: PlanFree, Status: status}
	}
	plan := rec.Plan
	if plan == "" {
		plan = PlanFree
	}
	return Entitlement{Plan: plan, Status: StatusActive}
}
