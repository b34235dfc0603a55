package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Registration Errors (A001-A009)
	// ============================================

	"A001": {
		Category: CategoryRegistration,
		Message:  "Field annotated with conflicting kinds",
		Detail:   "A field can carry exactly one of check, subscribe or unsubscribe. The class definition is aborted instead of picking one.",
		DocURL:   "https://vango.dev/docs/auto/errors/A001",
	},
	"A002": {
		Category: CategoryRegistration,
		Message:  "Host class is not a struct",
		Detail:   "Only struct types (or pointers to struct types) can be annotated.",
		DocURL:   "https://vango.dev/docs/auto/errors/A002",
	},
	"A003": {
		Category: CategoryRegistration,
		Message:  "Annotated field does not exist",
		Detail:   "The annotation names a field that the host struct does not declare or promote.",
		DocURL:   "https://vango.dev/docs/auto/errors/A003",
	},
	"A004": {
		Category: CategoryRegistration,
		Message:  "Annotated field is not exported",
		Detail:   "Field values are read through reflection, which requires exported fields.",
		DocURL:   "https://vango.dev/docs/auto/errors/A004",
	},
	"A005": {
		Category: CategoryRegistration,
		Message:  "Field type cannot serve the annotated kind",
		Detail:   "Subscribe fields need a Subscribe(func(T)) method returning func() or a value with Unsubscribe(). Unsubscribe fields need Unsubscribe() or Close() error.",
		DocURL:   "https://vango.dev/docs/auto/errors/A005",
	},
	"A006": {
		Category: CategoryRegistration,
		Message:  "Host class already has bound instances",
		Detail:   "Annotations must be registered before the first host of a class is bound.",
		DocURL:   "https://vango.dev/docs/auto/errors/A006",
	},
	"A007": {
		Category: CategoryRegistration,
		Message:  "Unknown annotation kind",
		Detail:   `Struct tag "auto" accepts check, subscribe or unsubscribe.`,
		DocURL:   "https://vango.dev/docs/auto/errors/A007",
	},

	// ============================================
	// Runtime Errors (A010-A019)
	// ============================================

	"A010": {
		Category: CategoryRuntime,
		Message:  "Change detector missing",
		Detail:   "A field changed or a stream emitted, but the host was bound without a ChangeDetector. This is a host runtime configuration error.",
		DocURL:   "https://vango.dev/docs/auto/errors/A010",
	},
	"A011": {
		Category: CategoryRuntime,
		Message:  "Resource close failed",
		Detail:   "An io.Closer held by an unsubscribe field returned an error during destroy.",
		DocURL:   "https://vango.dev/docs/auto/errors/A011",
	},

	// ============================================
	// Config Errors (A020-A029)
	// ============================================

	"A020": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file passed with --config does not exist.",
		DocURL:   "https://vango.dev/docs/auto/errors/A020",
	},
	"A021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or failed validation.",
		DocURL:   "https://vango.dev/docs/auto/errors/A021",
	},

	// ============================================
	// CLI Errors (A030-A039)
	// ============================================

	"A030": {
		Category: CategoryCLI,
		Message:  "Feed connection failed",
		Detail:   "The demo could not connect to the WebSocket feed. Start the server with 'auto serve' first.",
		DocURL:   "https://vango.dev/docs/auto/errors/A030",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
