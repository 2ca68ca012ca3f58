package odds

import (
	"errors"
	"fmt"
)

// Kind classifica as falhas do domínio; o chamador mapeia para status HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Error carrega o tipo da falha, a mensagem para o cliente e, quando houver,
// os identificadores envolvidos.
type Error struct {
	Kind      Kind
	Message   string
	MatchID   string
	Bookmaker string
}

func (e *Error) Error() string { return e.Message }

// Is permite errors.Is(err, ErrNotFound) etc., comparando só o Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrBadRequest = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrInternal   = &Error{Kind: KindInternal, Message: "internal server error"}
)

// KindOf retorna o Kind de err; erros fora do domínio são KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func errMatchNotFound(single bool) error {
	if single {
		return &Error{Kind: KindNotFound, Message: "Match with given Id not found"}
	}
	return &Error{Kind: KindNotFound, Message: "One of the matches with given Id not found"}
}

func errBookmakerNotFound(bookmaker, matchID string) error {
	return &Error{
		Kind:      KindNotFound,
		Message:   fmt.Sprintf("Bookmaker %s not found for match %s", bookmaker, matchID),
		MatchID:   matchID,
		Bookmaker: bookmaker,
	}
}

func errInvalidEventType(matchID string) error {
	return &Error{Kind: KindBadRequest, Message: "Invalid event type", MatchID: matchID}
}

func errOrphanMatch(matchID string) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", MatchID: matchID}
}
