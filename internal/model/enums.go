package model

// Roles stored in users.role and carried in the JWT "role" claim.
const (
	RoleSuperAdmin   = "Super Admin"
	RoleAdmin        = "Admin"
	RoleOrganisation = "Organisation"
	RoleActivist     = "Activist"
)

// Staff designations for admin profiles.
const (
	DesignationEventManager = "event"
	DesignationCOPDesk      = "cop"
	DesignationRegistrar    = "registrar"
)

// Review states shared by organisations and activists.
const (
	ReviewPending  = "Pending"
	ReviewDecline  = "Decline"
	ReviewApproved = "Approved"
)

// Side-event application states.
const (
	ApplicationPending  = "Pending"
	ApplicationApproved = "Approved"
	ApplicationDeclined = "Declined"
)

// Invoice payment states.
const (
	PaymentUnpaid  = "Unpaid"
	PaymentPaid    = "Paid"
	PaymentOverdue = "Overdue"
)

// DefaultAccreditor is the accrediting body recorded when none is given.
const DefaultAccreditor = "NCCC"

var (
	Roles        = []string{RoleSuperAdmin, RoleAdmin, RoleOrganisation, RoleActivist}
	SignupRoles  = []string{RoleOrganisation, RoleActivist}
	StaffRoles   = []string{RoleSuperAdmin, RoleAdmin}
	Designations = []string{DesignationEventManager, DesignationCOPDesk, DesignationRegistrar}

	OrganisationTypes = []string{"GO/MDAs", "NGO/iNGO", "Women/YouthLead", "Private"}
	ReviewStatuses    = []string{ReviewPending, ReviewDecline, ReviewApproved}

	FocusAreas = []string{
		"Agriculture",
		"Clean Energy",
		"Climate Finance",
		"Transportation",
		"Afforestation",
		"Media/Journalism",
		"Renewable Energy",
		"Environmental Policy",
		"Sustainable Urban Development",
		"Biodiversity Conservation",
		"Climate Adaptation",
		"Ocean Conservation",
	}

	States = []string{
		"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa", "Benue", "Borno",
		"Cross River", "Delta", "Ebonyi", "Edo", "Ekiti", "Enugu", "F.C.T", "Gombe", "Imo",
		"Jigawa", "Kaduna", "Kano", "Katsina", "Kebbi", "Kogi", "Kwara", "Lagos", "Nasarawa",
		"Niger", "Ogun", "Ondo", "Osun", "Oyo", "Plateau", "Rivers", "Sokoto", "Taraba",
		"Yobe", "Zamfara",
	}

	AccreditationTypes  = []string{"Party", "Party Overflow", "Observer", "Media/Journalist", "Volunteer"}
	ApplicationStatuses = []string{ApplicationPending, ApplicationApproved, ApplicationDeclined}
	EventTypes          = []string{"Panels", "Presentations", "Panel/Presentations"}
	Currencies          = []string{"NGN", "USD", "AED"}
	PaymentStatuses     = []string{PaymentUnpaid, PaymentPaid, PaymentOverdue}
)

// OneOf reports whether v is one of allowed. Matching is exact.
func OneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
