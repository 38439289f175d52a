package vm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/som/corelib"
)

// CompileFunc compiles the source of one class. When className is not empty
// the class defined in source must carry that name. When systemClass is not
// nil the definition is assembled into that pre-allocated class instead of
// a new one.
type CompileFunc func(u *Universe, source, filename, className string, systemClass *Class) (*Class, error)

// classPathEntry is a named root searched for Name.som files.
type classPathEntry struct {
	name string
	fsys fs.FS
}

// Universe owns everything a running program shares: the symbol table,
// the globals, the class path and the interpreter. Independent universes
// share no state. A Universe is not safe for concurrent use.
type Universe struct {
	symbols   *SymbolTable
	globals   map[*Symbol]Value
	classPath []classPathEntry
	providers map[string]PrimitiveProvider
	compile   CompileFunc
	interp    *Interpreter
	log       commonlog.Logger

	Stdout io.Writer
	Stderr io.Writer

	dumpBytecodes bool
	checkStack    bool
	noCoreLibrary bool
	startTime     time.Time
	initialized   bool

	symBootstrap *Symbol

	// Well-known objects
	Nil    *Object
	True   *Object
	False  *Object
	System *Object

	// Well-known classes
	ObjectClass    *Class
	ClassClass     *Class
	MetaclassClass *Class
	NilClass       *Class
	IntegerClass   *Class
	ArrayClass     *Class
	MethodClass    *Class
	SymbolClass    *Class
	PrimitiveClass *Class
	StringClass    *Class
	DoubleClass    *Class
	BlockClass     *Class
	TrueClass      *Class
	FalseClass     *Class
	SystemClass    *Class
}

// Option configures a Universe.
type Option func(*Universe)

// WithClassPath adds directories searched for class files, in order,
// before the bundled core library.
func WithClassPath(dirs ...string) Option {
	return func(u *Universe) {
		for _, dir := range dirs {
			u.classPath = append(u.classPath, classPathEntry{name: dir, fsys: os.DirFS(dir)})
		}
	}
}

// WithClassPathFS adds a file system searched for class files.
func WithClassPathFS(name string, fsys fs.FS) Option {
	return func(u *Universe) {
		u.classPath = append(u.classPath, classPathEntry{name: name, fsys: fsys})
	}
}

// WithoutCoreLibrary leaves the bundled core library off the class path.
func WithoutCoreLibrary() Option {
	return func(u *Universe) { u.noCoreLibrary = true }
}

// WithStdout redirects program output.
func WithStdout(w io.Writer) Option {
	return func(u *Universe) { u.Stdout = w }
}

// WithStderr redirects program error output and runtime warnings.
func WithStderr(w io.Writer) Option {
	return func(u *Universe) { u.Stderr = w }
}

// WithDumpBytecodes disassembles every class as it is loaded.
func WithDumpBytecodes(dump bool) Option {
	return func(u *Universe) { u.dumpBytecodes = dump }
}

// WithStackChecks makes the interpreter verify, before every instruction,
// that the operand stack of the running activation is within the depth the
// code generator computed. A violation fails with BadBytecode.
func WithStackChecks(check bool) Option {
	return func(u *Universe) { u.checkStack = check }
}

// NewUniverse creates an uninitialized universe. Wire a compiler with
// UseCompiler, then call Initialize.
func NewUniverse(opts ...Option) *Universe {
	u := &Universe{
		symbols:   NewSymbolTable(),
		globals:   make(map[*Symbol]Value),
		providers: defaultProviders(),
		log:       commonlog.GetLogger("som.vm"),
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if !u.noCoreLibrary {
		u.classPath = append(u.classPath, classPathEntry{name: "corelib", fsys: corelib.FS})
	}
	u.symBootstrap = u.SymbolFor("bootstrap")
	u.interp = newInterpreter(u)
	return u
}

// UseCompiler installs the function used to compile class sources.
func (u *Universe) UseCompiler(compile CompileFunc) {
	u.compile = compile
}

// Interpreter returns the interpreter of u.
func (u *Universe) Interpreter() *Interpreter { return u.interp }

// Logger returns the runtime logger.
func (u *Universe) Logger() commonlog.Logger { return u.log }

// ---------------------------------------------------------------------------
// Symbols and globals
// ---------------------------------------------------------------------------

// SymbolFor interns name.
func (u *Universe) SymbolFor(name string) *Symbol {
	return u.symbols.Intern(name)
}

// Symbols returns the symbol table.
func (u *Universe) Symbols() *SymbolTable { return u.symbols }

// Global returns the value bound to name.
func (u *Universe) Global(name *Symbol) (Value, bool) {
	v, ok := u.globals[name]
	return v, ok
}

// SetGlobal binds name to v.
func (u *Universe) SetGlobal(name *Symbol, v Value) {
	u.globals[name] = v
}

// GlobalNames returns the names of all globals, sorted.
func (u *Universe) GlobalNames() []string {
	names := make([]string, 0, len(u.globals))
	for name := range u.globals {
		names = append(names, name.String())
	}
	sort.Strings(names)
	return names
}

// Boolean returns the true or false object.
func (u *Universe) Boolean(b bool) *Object {
	if b {
		return u.True
	}
	return u.False
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

// Initialize builds the object system: the class/metaclass fixed point,
// the system classes loaded from the class path, and the well-known
// instances nil, true, false and system.
func (u *Universe) Initialize() error {
	if u.initialized {
		return nil
	}
	if u.compile == nil {
		return BootstrapFailed.New("no compiler installed")
	}
	if err := u.initializeObjectSystem(); err != nil {
		return BootstrapFailed.Wrap(err, "cannot initialize object system")
	}
	u.initialized = true
	return nil
}

func (u *Universe) initializeObjectSystem() error {
	// Allocate first; the class pointer of nil is tied once Nil exists.
	u.Nil = &Object{}

	u.MetaclassClass = newMetaclassClass()
	u.ObjectClass = u.newSystemClass()
	u.NilClass = u.newSystemClass()
	u.ClassClass = u.newSystemClass()
	u.ArrayClass = u.newSystemClass()
	u.SymbolClass = u.newSystemClass()
	u.MethodClass = u.newSystemClass()
	u.IntegerClass = u.newSystemClass()
	u.PrimitiveClass = u.newSystemClass()
	u.StringClass = u.newSystemClass()
	u.DoubleClass = u.newSystemClass()

	u.Nil.class = u.NilClass

	u.initializeSystemClass(u.ObjectClass, nil, "Object")
	u.initializeSystemClass(u.ClassClass, u.ObjectClass, "Class")
	u.initializeSystemClass(u.MetaclassClass, u.ClassClass, "Metaclass")
	u.initializeSystemClass(u.NilClass, u.ObjectClass, "Nil")
	u.initializeSystemClass(u.ArrayClass, u.ObjectClass, "Array")
	u.initializeSystemClass(u.MethodClass, u.ArrayClass, "Method")
	u.initializeSystemClass(u.StringClass, u.ObjectClass, "String")
	u.initializeSystemClass(u.SymbolClass, u.StringClass, "Symbol")
	u.initializeSystemClass(u.IntegerClass, u.ObjectClass, "Integer")
	u.initializeSystemClass(u.PrimitiveClass, u.ObjectClass, "Primitive")
	u.initializeSystemClass(u.DoubleClass, u.ObjectClass, "Double")

	for _, c := range []*Class{
		u.ObjectClass, u.ClassClass, u.MetaclassClass, u.NilClass,
		u.ArrayClass, u.MethodClass, u.SymbolClass, u.IntegerClass,
		u.PrimitiveClass, u.StringClass, u.DoubleClass,
	} {
		if err := u.loadSystemClass(c); err != nil {
			return err
		}
	}

	var err error
	if u.BlockClass, err = u.LoadClass(u.SymbolFor("Block")); err != nil {
		return err
	}
	if u.TrueClass, err = u.LoadClass(u.SymbolFor("True")); err != nil {
		return err
	}
	if u.FalseClass, err = u.LoadClass(u.SymbolFor("False")); err != nil {
		return err
	}
	if u.SystemClass, err = u.LoadClass(u.SymbolFor("System")); err != nil {
		return err
	}
	u.True = u.NewInstance(u.TrueClass)
	u.False = u.NewInstance(u.FalseClass)
	u.System = u.NewInstance(u.SystemClass)

	u.SetGlobal(u.SymbolFor("nil"), u.Nil)
	u.SetGlobal(u.SymbolFor("true"), u.True)
	u.SetGlobal(u.SymbolFor("false"), u.False)
	u.SetGlobal(u.SymbolFor("system"), u.System)
	return nil
}

// newMetaclassClass ties the fixed point: Metaclass class class == Metaclass.
func newMetaclassClass() *Class {
	result := NewClass(nil)
	meta := NewClass(nil)
	result.class = meta
	meta.class = result
	return result
}

func (u *Universe) newSystemClass() *Class {
	return NewClass(NewClass(u.MetaclassClass))
}

func (u *Universe) initializeSystemClass(c, super *Class, name string) {
	if super != nil {
		c.superclass = super
		c.class.superclass = super.class
	} else {
		c.class.superclass = u.ClassClass
	}
	c.instanceFields = nil
	c.class.instanceFields = nil
	c.invokables = nil
	c.class.invokables = nil
	c.name = u.SymbolFor(name)
	c.class.name = u.SymbolFor(name + " class")
	u.SetGlobal(c.name, c)
}

func (u *Universe) loadSystemClass(c *Class) error {
	_, err := u.loadClassFromPath(c.name, c)
	return err
}

// ---------------------------------------------------------------------------
// Class loading
// ---------------------------------------------------------------------------

// LoadClass returns the global class called name, loading it from the class
// path on first use. A class that is already a global is never reloaded.
func (u *Universe) LoadClass(name *Symbol) (*Class, error) {
	if g, ok := u.globals[name]; ok {
		if c, ok := g.(*Class); ok {
			return c, nil
		}
	}
	c, err := u.loadClassFromPath(name, nil)
	if err != nil {
		return nil, err
	}
	u.SetGlobal(name, c)
	return c, nil
}

// BlockClassFor returns the block class for blocks taking numArgs
// arguments including the block itself.
func (u *Universe) BlockClassFor(numArgs int) (*Class, error) {
	return u.LoadClass(u.SymbolFor(fmt.Sprintf("Block%d", numArgs)))
}

func (u *Universe) loadClassFromPath(name *Symbol, systemClass *Class) (*Class, error) {
	if u.compile == nil {
		return nil, BootstrapFailed.New("no compiler installed")
	}
	file := name.String() + ".som"
	for _, entry := range u.classPath {
		source, err := fs.ReadFile(entry.fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, LookupFailed.Wrap(err, "cannot read %s", path.Join(entry.name, file))
		}
		u.log.Debugf("loading %s from %s", name, entry.name)
		return u.installClass(string(source), path.Join(entry.name, file), name.String(), systemClass)
	}
	return nil, ClassNotFound.New("could not find class %s on the class path", name)
}

// LoadClassFromSource compiles a class definition held in memory, binds it
// as a global and answers it.
func (u *Universe) LoadClassFromSource(source, filename string) (*Class, error) {
	c, err := u.installClass(source, filename, "", nil)
	if err != nil {
		return nil, err
	}
	u.SetGlobal(c.Name(), c)
	return c, nil
}

func (u *Universe) installClass(source, filename, className string, systemClass *Class) (*Class, error) {
	c, err := u.compile(u, source, filename, className, systemClass)
	if err != nil {
		return nil, err
	}
	if c.HasPrimitives() || c.class.HasPrimitives() {
		u.loadPrimitives(c)
	}
	if u.dumpBytecodes {
		Disassemble(u.Stdout, c.class)
		Disassemble(u.Stdout, c)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Running code
// ---------------------------------------------------------------------------

// Interpret sends a class-side selector to the named class.
func (u *Universe) Interpret(className, selector string) (Value, error) {
	c, err := u.LoadClass(u.SymbolFor(className))
	if err != nil {
		return nil, err
	}
	sel := u.SymbolFor(selector)
	if c.class.LookupInvokable(sel) == nil {
		return nil, LookupFailed.New("lookup of %s>>#%s failed", className, selector)
	}
	return u.Execute(c, selector)
}

// Execute sends selector with args to receiver and runs until it answers.
// Messages the receiver does not understand go to doesNotUnderstand:arguments:.
func (u *Universe) Execute(receiver Value, selector string, args ...Value) (Value, error) {
	sel := u.SymbolFor(selector)
	return u.runBootstrap(len(args)+1, func(in *Interpreter) error {
		return in.Send(sel, receiver, args...)
	})
}

// Run sends initialize: with the program arguments to the system object and
// answers the process exit code.
func (u *Universe) Run(args []string) (int, error) {
	arr := u.NewArray(len(args))
	for i, a := range args {
		arr.Put(i, NewString(a))
	}
	_, err := u.Execute(u.System, "initialize:", arr)
	if code, ok := ExitCode(err); ok {
		return code, nil
	}
	if err != nil {
		return 1, err
	}
	return 0, nil
}

// runBootstrap pushes a bootstrap frame holding a single HALT, lets start
// activate the entry method, and runs the interpreter until that HALT. The
// frame stack is restored afterwards even when execution fails.
func (u *Universe) runBootstrap(depth int, start func(in *Interpreter) error) (result Value, err error) {
	in := u.interp
	base := in.frame
	if depth < 3 {
		depth = 3
	}
	bootstrap := NewMethod(u.symBootstrap, []byte{byte(OpHalt)}, nil, 0, depth)
	bootstrap.holder = u.SystemClass
	in.PushNewFrame(bootstrap, nil)

	defer func() {
		if r := recover(); r != nil {
			err = PrimitiveFailed.New("internal error: %v\n%s", r, in.StackTrace())
		}
		for in.frame != base && in.frame != nil {
			in.PopFrame()
		}
		in.frame = base
	}()

	if err = start(in); err != nil {
		return nil, err
	}
	return in.Start()
}
