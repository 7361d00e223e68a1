// bridges.go — host-native bridge implementations.
//
// A bridge is a named table of host methods registered before a program
// runs (Interpreter.RegisterBridge, see interpreter.go). Bridge handlers
// receive fully evaluated arguments and are responsible for validating
// arity and kinds; their errors surface in the language as catchable
// BridgeError objects.
//
// The reference bridges here are `fs` (read, exists, write) and `http`
// (get, get_json, post). The http bridge converts JSON payloads into
// language values, preserving object key order.
package fenics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func expectString(method string, args []Value, pos int) (string, error) {
	if args[pos].Tag != VTStr {
		return "", fmt.Errorf("%s: argument %d must be a string", method, pos+1)
	}
	return args[pos].Data.(string), nil
}

// NewFSBridge returns the filesystem bridge: fs.read(path) -> String,
// fs.exists(path) -> Boolean, fs.write(path, content) -> Boolean.
func NewFSBridge() BridgeFunc {
	return func(method string, args []Value) (Value, error) {
		switch method {
		case "read":
			if len(args) != 1 {
				return Null, fmt.Errorf("fs.read(path) takes exactly 1 argument")
			}
			path, err := expectString("fs.read", args, 0)
			if err != nil {
				return Null, err
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return Null, fmt.Errorf("fs.read error: %v", err)
			}
			return Str(string(b)), nil

		case "exists":
			if len(args) != 1 {
				return Null, fmt.Errorf("fs.exists(path) takes exactly 1 argument")
			}
			path, err := expectString("fs.exists", args, 0)
			if err != nil {
				return Null, err
			}
			_, statErr := os.Stat(path)
			return Bool(statErr == nil), nil

		case "write":
			if len(args) != 2 {
				return Null, fmt.Errorf("fs.write(path, content) takes exactly 2 arguments")
			}
			path, err := expectString("fs.write", args, 0)
			if err != nil {
				return Null, err
			}
			content, err := expectString("fs.write", args, 1)
			if err != nil {
				return Null, err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return Null, fmt.Errorf("fs.write error: %v", err)
			}
			return Bool(true), nil
		}
		return Null, fmt.Errorf("unknown fs method '%s'; supported: read, exists, write", method)
	}
}

// NewHTTPBridge returns the http bridge: http.get(url) -> String,
// http.get_json(url) -> Value, http.post(url, body) -> String.
// Pass nil to use a default client with a 15s timeout.
func NewHTTPBridge(client *http.Client) BridgeFunc {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return func(method string, args []Value) (Value, error) {
		switch method {
		case "get":
			if len(args) != 1 {
				return Null, fmt.Errorf("http.get(url) takes exactly 1 argument")
			}
			url, err := expectString("http.get", args, 0)
			if err != nil {
				return Null, err
			}
			body, err := httpFetch(client, url)
			if err != nil {
				return Null, fmt.Errorf("http.get error: %v", err)
			}
			return Str(body), nil

		case "get_json":
			if len(args) != 1 {
				return Null, fmt.Errorf("http.get_json(url) takes exactly 1 argument")
			}
			url, err := expectString("http.get_json", args, 0)
			if err != nil {
				return Null, err
			}
			body, err := httpFetch(client, url)
			if err != nil {
				return Null, fmt.Errorf("http.get_json error: %v", err)
			}
			v, err := JSONToValue([]byte(body))
			if err != nil {
				return Null, fmt.Errorf("http.get_json parse error: %v", err)
			}
			return v, nil

		case "post":
			if len(args) != 2 {
				return Null, fmt.Errorf("http.post(url, body) takes exactly 2 arguments")
			}
			url, err := expectString("http.post", args, 0)
			if err != nil {
				return Null, err
			}
			payload, err := expectString("http.post", args, 1)
			if err != nil {
				return Null, err
			}
			resp, err := client.Post(url, "text/plain", bytes.NewReader([]byte(payload)))
			if err != nil {
				return Null, fmt.Errorf("http.post error: %v", err)
			}
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return Null, fmt.Errorf("http.post read error: %v", err)
			}
			return Str(string(b)), nil
		}
		return Null, fmt.Errorf("unknown http method '%s'; supported: get, get_json, post", method)
	}
}

func httpFetch(client *http.Client, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSONToValue decodes JSON into language values. Object key order is
// preserved by walking decoder tokens instead of unmarshalling into Go
// maps; integral numbers decode as Int, others as Float.
func JSONToValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return Null, err
	}
	if dec.More() {
		return Null, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null, err
		}
		return Float(f), nil
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				v, err := decodeJSON(dec)
				if err != nil {
					return Null, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil { // ']'
				return Null, err
			}
			return Arr(elems), nil
		case '{':
			mo := &MapObject{Entries: map[string]Value{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null, fmt.Errorf("invalid JSON object key")
				}
				v, err := decodeJSON(dec)
				if err != nil {
					return Null, err
				}
				mo.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // '}'
				return Null, err
			}
			return Value{Tag: VTObject, Data: mo}, nil
		}
	}
	return Null, fmt.Errorf("unexpected JSON token %v", tok)
}
