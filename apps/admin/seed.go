package main

// seed loads the sample records into the in-memory store. A store that
// already holds users is left untouched.
func (cli *commandLine) seed() error {
	if cli.seedFunc == nil {
		return errNoMem
	}
	return cli.seedFunc()
}
