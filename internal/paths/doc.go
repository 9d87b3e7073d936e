// Package paths resolves where the miuitask configuration lives.
//
// The configuration sits in <root>/data. Its format is fixed when the
// location is resolved: JSON if data/config.json already exists, YAML
// otherwise. MIUITASK_CONFIG_PATH replaces the whole file path but does not
// change the detected format:
//
//	loc, err := paths.Resolve(paths.DefaultRoot())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(loc.Path, loc.Format)
//
// Resolve creates the data directory as a side effect and reports failures
// such as permission errors instead of ignoring them.
package paths
