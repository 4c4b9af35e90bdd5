package apperr

// Failure is a raw failure tagged with its origin. The boundary that catches
// a failure picks the variant; Format never has to guess from its shape.
type Failure interface {
	failure()
}

// ResponseFailure is a non-2xx HTTP response.
type ResponseFailure struct {
	Status int
	Body   []byte
}

// NoResponseFailure is a request that was sent without receiving an answer.
type NoResponseFailure struct {
	Err     error
	Timeout bool
}

// RequestFailure is a request that could not be prepared or sent.
type RequestFailure struct {
	Err error
}

// AppFailure is an error raised by application code.
type AppFailure struct {
	Err error
}

// TextFailure is a bare message raised in place of an error.
type TextFailure string

func (ResponseFailure) failure()   {}
func (NoResponseFailure) failure() {}
func (RequestFailure) failure()    {}
func (AppFailure) failure()        {}
func (TextFailure) failure()       {}
