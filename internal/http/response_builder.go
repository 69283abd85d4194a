package http

import (
	"encoding/json"
	"net/http"
)

// ResponseBuilder assembles a JSON response.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Message sets the {"message": ...} body used for errors and
// acknowledgements.
func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	return b.JSON(messageBody{Message: msg})
}

// Write sends the response. A nil body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) error {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return nil
	}
	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal server error"}`))
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, err = w.Write(append(data, '\n'))
	return err
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	_ = NewResponse().Status(status).JSON(v).Write(w)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	_ = NewResponse().Status(status).Message(msg).Write(w)
}
