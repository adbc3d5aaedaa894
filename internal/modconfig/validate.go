package modconfig

import (
	"fmt"

	"github.com/go5chan/boardkeeper/internal/model"
)

// recognizedReasonKeySet mirrors model.RecognizedReasonKeys as a set for
// O(1) membership checks.
var recognizedReasonKeySet = func() map[string]bool {
	set := make(map[string]bool, len(model.RecognizedReasonKeys))
	for _, k := range model.RecognizedReasonKeys {
		set[k] = true
	}
	return set
}()

// validateGlobalFields hand-checks everything the JSON Schema pass cannot:
// exact field types for values a schema already approved loosely, and the
// moderationReasons closed key set.
func validateGlobalFields(file string, raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: top-level value must be a JSON object", file)
	}
	for _, key := range []string{"rpcUrl", "stateDir", "userAgent"} {
		if v, present := obj[key]; present {
			if _, isString := v.(string); !isString {
				return fmt.Errorf("%s: field %q must be a string", file, key)
			}
		}
	}
	if v, present := obj["defaults"]; present {
		defaults, isObj := v.(map[string]any)
		if !isObj {
			return fmt.Errorf("%s: field %q must be an object", file, "defaults")
		}
		if err := validateTunables(file, defaults); err != nil {
			return err
		}
		if err := validateModerationReasons(file, defaults["moderationReasons"]); err != nil {
			return err
		}
	}
	return nil
}

// validateBoardFields hand-checks a board record's fields.
func validateBoardFields(file string, raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: top-level value must be a JSON object", file)
	}
	address, hasAddress := obj["address"].(string)
	if !hasAddress || address == "" {
		return fmt.Errorf("%s: field %q is required and must be a non-empty string", file, "address")
	}
	if err := validateTunables(file, obj); err != nil {
		return err
	}
	return validateModerationReasons(file, obj["moderationReasons"])
}

// validateTunables checks that each of the four optional numeric tunables,
// if present, is an integer-typed JSON number greater than zero. JSON
// numbers decode to float64 in a generic map, so a float with a nonzero
// fractional part (or a zero/negative value) is rejected.
func validateTunables(file string, obj map[string]any) error {
	for _, key := range []string{"perPage", "pages", "bumpLimit", "archivePurgeSeconds"} {
		v, present := obj[key]
		if !present {
			continue
		}
		n, isNumber := v.(float64)
		if !isNumber || n != float64(int64(n)) || n <= 0 {
			return fmt.Errorf("%s: field %q must be a positive integer", file, key)
		}
	}
	return nil
}

// validateModerationReasons checks that, if present, moderationReasons is
// an object with only the four recognized keys, each a string value.
func validateModerationReasons(file string, v any) error {
	if v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: field %q must be an object", file, "moderationReasons")
	}
	for key, val := range obj {
		if !recognizedReasonKeySet[key] {
			return fmt.Errorf("%s: moderationReasons has unrecognized key %q", file, key)
		}
		if _, isString := val.(string); !isString {
			return fmt.Errorf("%s: moderationReasons.%s must be a string", file, key)
		}
	}
	return nil
}
