package notifications

const (
	TypeToast = "toast"
)
