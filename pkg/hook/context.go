package hook

// Stage values hosts assign to Context.Stage. The pipeline itself does not
// read Stage; utility interceptors use it to decide whether they operate on
// Data or Result.
const (
	StageBefore = "before"
	StageAfter  = "after"
)

// Context carries one service call through a pipeline. Interceptors may
// mutate it in place or return a replacement; a replacement is seen by every
// subsequent interceptor and by the caller of Invoke.
type Context struct {
	// Path names the service being called, Method the operation on it.
	Path   string
	Method string

	// Transport identifies how the call entered the process ("rest",
	// "grpc", ...). Empty means an in-process call.
	Transport string

	// ID is the resource identifier for id-addressed methods, empty
	// otherwise.
	ID string

	// Stage is "before" or "after" when set by a host, empty otherwise.
	Stage string

	// Data is the inbound payload. Result is nil until an interceptor or
	// the host's method execution populates it.
	Data   any
	Result any

	// Meta is a free-form property bag shared along the invocation. Use
	// Set and Get to avoid writing to a nil map.
	Meta map[string]any
}

// NewContext builds a context for a service call with an allocated Meta bag.
func NewContext(path, method string) *Context {
	return &Context{
		Path:   path,
		Method: method,
		Meta:   make(map[string]any),
	}
}

// Set stores a metadata value, allocating the bag on first use.
func (c *Context) Set(key string, value any) {
	if c.Meta == nil {
		c.Meta = make(map[string]any)
	}
	c.Meta[key] = value
}

// Get returns a metadata value and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	if c.Meta == nil {
		return nil, false
	}
	v, ok := c.Meta[key]
	return v, ok
}
