package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Cards() CardRepository
	Suspensions() SuspensionRepository
	Products() ProductRepository
}
