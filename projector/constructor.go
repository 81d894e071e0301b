package projector

import (
	"fmt"
	"reflect"
)

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	fn           reflect.Value
	paramTypes   []reflect.Type
	returnsError bool
	returnType   reflect.Type
}

var errorType = reflect.TypeFor[error]()

// parseConstructor analyzes a constructor function and extracts metadata.
// Supported signatures:
//   - func(...) X
//   - func(...) (X, error)
func parseConstructor(constructor any) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported")
	}

	// Validate return values
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (X) or (X, error), got %d return values", numOut)
	}

	returnsError := false
	if numOut == 2 {
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	paramTypes := make([]reflect.Type, fnType.NumIn())
	for i := range paramTypes {
		paramTypes[i] = fnType.In(i)
	}

	return &constructorInfo{
		fn:           fnValue,
		paramTypes:   paramTypes,
		returnsError: returnsError,
		returnType:   fnType.Out(0),
	}, nil
}

// invoke calls the constructor. Each parameter takes the first unused
// argument assignable to it, otherwise a value from r.
func (info *constructorInfo) invoke(r Resolver, args []any) (any, error) {
	used := make([]bool, len(args))
	params := make([]reflect.Value, len(info.paramTypes))

	for i, paramType := range info.paramTypes {
		v, ok := takeArg(paramType, args, used)
		if !ok && r != nil {
			if resolved, found := r.ResolveType(paramType); found && resolved != nil {
				rv := reflect.ValueOf(resolved)
				if rv.Type().AssignableTo(paramType) {
					v, ok = rv, true
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("cannot satisfy constructor parameter %d (%v)", i, paramType)
		}
		params[i] = v
	}

	results := info.fn.Call(params)

	if info.returnsError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, fmt.Errorf("constructor returned error: %w", errValue.Interface().(error))
		}
	}
	return results[0].Interface(), nil
}

func takeArg(paramType reflect.Type, args []any, used []bool) (reflect.Value, bool) {
	for j, arg := range args {
		if used[j] || arg == nil {
			continue
		}
		av := reflect.ValueOf(arg)
		if av.Type().AssignableTo(paramType) {
			used[j] = true
			return av, true
		}
	}
	return reflect.Value{}, false
}
