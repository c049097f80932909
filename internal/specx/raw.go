package specx

// raw* mirror the on-disk YAML shape of a namespace fixture one-to-one;
// Catalog.LoadNamespaces converts them into internal/spec's
// BaseStorageSpec trees. Kept deliberately flat and permissive (no
// required-field validation beyond what conversion needs) since these
// fixtures are hand-authored for tests and cmd/hdmfcheck, never user
// input from an untrusted source.
type rawAttribute struct {
	Name      string `yaml:"name"`
	Dtype     string `yaml:"dtype"`
	RefTarget string `yaml:"ref_target"`
	RefRegion bool   `yaml:"ref_region"`
	Shape     []int  `yaml:"shape"`
	Required  bool   `yaml:"required"`
	Default   any    `yaml:"default"`
	Value     any    `yaml:"value"`
}

type rawCompoundField struct {
	Name  string `yaml:"name"`
	Dtype string `yaml:"dtype"`
}

type rawLink struct {
	Name       string `yaml:"name"`
	TargetType string `yaml:"target_type"`
	Quantity   string `yaml:"quantity"`
}

type rawDataset struct {
	Name        string             `yaml:"name"`
	DataTypeDef string             `yaml:"data_type_def"`
	DataTypeInc string             `yaml:"data_type_inc"`
	Inherits    string             `yaml:"inherits"`
	Dtype       string             `yaml:"dtype"`
	Compound    []rawCompoundField `yaml:"compound"`
	RefTarget   string             `yaml:"ref_target"`
	RefRegion   bool               `yaml:"ref_region"`
	Shape       []int              `yaml:"shape"`
	Dims        []string           `yaml:"dims"`
	DefaultName string             `yaml:"default_name"`
	Quantity    string             `yaml:"quantity"`
	Attributes  []rawAttribute     `yaml:"attributes"`
}

type rawGroup struct {
	Name        string         `yaml:"name"`
	DataTypeDef string         `yaml:"data_type_def"`
	DataTypeInc string         `yaml:"data_type_inc"`
	Inherits    string         `yaml:"inherits"`
	DefaultName string         `yaml:"default_name"`
	Quantity    string         `yaml:"quantity"`
	Attributes  []rawAttribute `yaml:"attributes"`
	Groups      []rawGroup     `yaml:"groups"`
	Datasets    []rawDataset   `yaml:"datasets"`
	Links       []rawLink      `yaml:"links"`
}

type rawNamespace struct {
	Name    string              `yaml:"namespace"`
	TypeKey string              `yaml:"type_key"`
	Depends map[string][]string `yaml:"depends"`

	Groups   map[string]rawGroup   `yaml:"groups"`
	Datasets map[string]rawDataset `yaml:"datasets"`
}
