package assets

// Loader decodes one file under the asset root. The concrete type of the
// result depends on the resource type the loader is registered for.
type Loader interface {
	Load(path string) (interface{}, error)
}
