package layout

import (
	"fmt"
	"strings"
)

// SplitFullyQualifiedName splits "path/to/File.sol:Name" into its source path and contract name.
// The last colon separates the two so that source paths containing colons stay intact.
func SplitFullyQualifiedName(fqn string) (sourceName string, contractName string, err error) {
	fqn = strings.TrimSpace(fqn)
	i := strings.LastIndex(fqn, ":")
	if i <= 0 || i == len(fqn)-1 {
		return "", "", fmt.Errorf("%w: %q is not a fully qualified name (want path:ContractName)", ErrMalformedInput, fqn)
	}
	return fqn[:i], fqn[i+1:], nil
}

// FullyQualifiedName joins a source path and a contract name.
func FullyQualifiedName(sourceName, contractName string) string {
	return sourceName + ":" + contractName
}
