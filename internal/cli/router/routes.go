package router

// Well-known paths
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	CustomersPath = "/customers"
)

// Route names
const (
	NameLogin     = "Login"
	NameDashboard = "Dashboard"
	NameCustomers = "Customers"
)

// DefaultRoutes is the console's route table
func DefaultRoutes() []Route {
	return []Route{
		{
			Path: LoginPath,
			Name: NameLogin,
			Meta: Meta{RequiresGuest: true},
		},
		{
			Path: DashboardPath,
			Name: NameDashboard,
			Meta: Meta{RequiresAuth: true, AdminOnly: true},
		},
		{
			Path: CustomersPath,
			Name: NameCustomers,
			Meta: Meta{RequiresAuth: true, AdminOnly: true},
		},
		{Path: "/", Redirect: DashboardPath},
		{Path: CatchAll, Redirect: LoginPath},
	}
}
